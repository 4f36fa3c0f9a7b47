package domain

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "manager", "customer"} {
		if _, err := ParseRole(valid); err != nil {
			t.Fatalf("ParseRole(%q): %v", valid, err)
		}
	}
	for _, invalid := range []string{"", "Admin", "root", "superuser"} {
		if _, err := ParseRole(invalid); !errors.Is(err, ErrInvalidRole) {
			t.Fatalf("ParseRole(%q): expected ErrInvalidRole, got %v", invalid, err)
		}
	}
}

func TestCanCreateRole(t *testing.T) {
	cases := []struct {
		actor   Role
		newRole Role
		want    bool
	}{
		{RoleAdmin, RoleAdmin, true},
		{RoleAdmin, RoleManager, true},
		{RoleAdmin, RoleCustomer, true},
		{RoleManager, RoleAdmin, false},
		{RoleManager, RoleManager, false},
		{RoleManager, RoleCustomer, true},
		{RoleCustomer, RoleAdmin, false},
		{RoleCustomer, RoleManager, false},
		{RoleCustomer, RoleCustomer, false},
	}
	for _, tc := range cases {
		if got := CanCreateRole(tc.actor, tc.newRole); got != tc.want {
			t.Errorf("CanCreateRole(%s, %s) = %v, want %v", tc.actor, tc.newRole, got, tc.want)
		}
	}
}

func TestListScope(t *testing.T) {
	if ListScope(&User{Role: RoleAdmin}) != ScopeAll {
		t.Errorf("admin scope should be all")
	}
	if ListScope(&User{Role: RoleManager}) != ScopeAssigned {
		t.Errorf("manager scope should be assigned")
	}
	if ListScope(&User{Role: RoleCustomer}) != ScopeSelf {
		t.Errorf("customer scope should be self")
	}
}

func TestAuthorize_ReassignIsAdminExclusive(t *testing.T) {
	manager := &User{ID: "m1", Role: RoleManager}
	owned := &User{ID: "c1", Role: RoleCustomer, Customer: &CustomerDetails{AssignedManagerID: "m1"}}

	// Owning the customer grants no reassignment right.
	if err := Authorize(manager, OpReassignCustomer, owned); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}

	admin := &User{ID: "a1", Role: RoleAdmin}
	if err := Authorize(admin, OpReassignCustomer, owned); err != nil {
		t.Fatalf("admin reassign: %v", err)
	}

	customer := &User{ID: "c2", Role: RoleCustomer}
	if err := Authorize(customer, OpReassignCustomer, owned); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied for customer, got %v", err)
	}
}

func TestAuthorize_ViewUser(t *testing.T) {
	admin := &User{ID: "a1", Role: RoleAdmin}
	manager := &User{ID: "m1", Role: RoleManager}
	customer := &User{ID: "c1", Role: RoleCustomer, Customer: &CustomerDetails{AssignedManagerID: "m1"}}
	stranger := &User{ID: "c2", Role: RoleCustomer, Customer: &CustomerDetails{AssignedManagerID: "m2"}}

	if err := Authorize(admin, OpViewUser, stranger); err != nil {
		t.Fatalf("admin view: %v", err)
	}
	if err := Authorize(manager, OpViewUser, customer); err != nil {
		t.Fatalf("manager viewing assigned customer: %v", err)
	}
	if err := Authorize(manager, OpViewUser, stranger); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for unassigned customer, got %v", err)
	}
	if err := Authorize(customer, OpViewUser, customer); err != nil {
		t.Fatalf("self view: %v", err)
	}
	if err := Authorize(customer, OpViewUser, stranger); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for peer view, got %v", err)
	}
}

func TestAuthorize_ManagedCustomersIsManagerOnly(t *testing.T) {
	if err := Authorize(&User{ID: "m1", Role: RoleManager}, OpListManagedCustomers, nil); err != nil {
		t.Fatalf("manager: %v", err)
	}
	if err := Authorize(&User{ID: "a1", Role: RoleAdmin}, OpListManagedCustomers, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin, got %v", err)
	}
	if err := Authorize(&User{ID: "c1", Role: RoleCustomer}, OpListManagedCustomers, nil); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for customer, got %v", err)
	}
}

func TestAuthorize_NilActor(t *testing.T) {
	if err := Authorize(nil, OpViewUser, &User{ID: "c1"}); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid for missing actor, got %v", err)
	}
}
