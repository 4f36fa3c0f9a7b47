package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/crmforge/accounts-api/internal/core/domain"
	"github.com/crmforge/accounts-api/internal/core/ports"
)

type stubAuditRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditEntry
}

func (r *stubAuditRepo) Insert(_ context.Context, entry *domain.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

func (r *stubAuditRepo) ListRecent(_ context.Context, limit int64) ([]*domain.AuditEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.AuditEntry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func newUserService(repo *stubUserRepo) *UserService {
	return NewUserService(repo, &stubAuditRepo{}, &stubRecorder{}, zerolog.Nop())
}

// seedUser inserts a user directly into the stub repository.
func seedUser(t *testing.T, repo *stubUserRepo, email string, role domain.Role) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:    email,
		Role:     role,
		IsActive: true,
	}
	if role == domain.RoleCustomer {
		user.Customer = &domain.CustomerDetails{}
	}
	created, err := repo.Insert(context.Background(), user)
	if err != nil {
		t.Fatalf("seed %s: %v", email, err)
	}
	return created
}

func TestUserService_Create_RoleConstraints(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo)

	admin := seedUser(t, repo, "admin@x.com", domain.RoleAdmin)
	manager := seedUser(t, repo, "mgr@x.com", domain.RoleManager)
	customer := seedUser(t, repo, "cust@x.com", domain.RoleCustomer)

	// Admin may create any role.
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleManager, domain.RoleCustomer} {
		if _, err := svc.Create(context.Background(), admin, ports.CreateUserInput{
			Email:    "new-" + string(role) + "@x.com",
			Password: "password1",
			Role:     role,
		}); err != nil {
			t.Fatalf("admin creating %s: %v", role, err)
		}
	}

	// Manager may create customers only.
	if _, err := svc.Create(context.Background(), manager, ports.CreateUserInput{
		Email: "m1@x.com", Password: "password1", Role: domain.RoleManager,
	}); !errors.Is(err, domain.ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole for manager creating manager, got %v", err)
	}
	if _, err := svc.Create(context.Background(), manager, ports.CreateUserInput{
		Email: "c1@x.com", Password: "password1", Role: domain.RoleCustomer,
	}); err != nil {
		t.Fatalf("manager creating customer: %v", err)
	}

	// Customers may create nothing.
	if _, err := svc.Create(context.Background(), customer, ports.CreateUserInput{
		Email: "c2@x.com", Password: "password1", Role: domain.RoleCustomer,
	}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for customer creating user, got %v", err)
	}
}

func TestUserService_Create_ManagerAutoAssigns(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo)

	manager := seedUser(t, repo, "mgr@x.com", domain.RoleManager)

	created, err := svc.Create(context.Background(), manager, ports.CreateUserInput{
		Email: "c@x.com", Password: "password1", Role: domain.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Customer == nil || created.Customer.AssignedManagerID != manager.ID {
		t.Fatalf("expected customer assigned to creating manager, got %+v", created.Customer)
	}
	if created.CreatedBy != manager.ID {
		t.Fatalf("expected created_by %s, got %s", manager.ID, created.CreatedBy)
	}
}

func TestUserService_Create_AdminAssignsNamedManager(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo)

	admin := seedUser(t, repo, "admin@x.com", domain.RoleAdmin)
	manager := seedUser(t, repo, "mgr@x.com", domain.RoleManager)
	customer := seedUser(t, repo, "cust@x.com", domain.RoleCustomer)

	created, err := svc.Create(context.Background(), admin, ports.CreateUserInput{
		Email: "c@x.com", Password: "password1", Role: domain.RoleCustomer,
		AssignedManagerID: manager.ID,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.Customer.AssignedManagerID != manager.ID {
		t.Fatalf("expected assignment to %s, got %s", manager.ID, created.Customer.AssignedManagerID)
	}

	// Assignment target must hold the manager role.
	if _, err := svc.Create(context.Background(), admin, ports.CreateUserInput{
		Email: "c2@x.com", Password: "password1", Role: domain.RoleCustomer,
		AssignedManagerID: customer.ID,
	}); !errors.Is(err, domain.ErrNotAManager) {
		t.Fatalf("expected ErrNotAManager, got %v", err)
	}
}

func TestUserService_Create_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo)

	admin := seedUser(t, repo, "admin@x.com", domain.RoleAdmin)
	seedUser(t, repo, "taken@x.com", domain.RoleCustomer)

	if _, err := svc.Create(context.Background(), admin, ports.CreateUserInput{
		Email: "taken@x.com", Password: "password1", Role: domain.RoleCustomer,
	}); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserService_List_Scoping(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo)

	admin := seedUser(t, repo, "admin@x.com", domain.RoleAdmin)
	m1 := seedUser(t, repo, "m1@x.com", domain.RoleManager)
	m2 := seedUser(t, repo, "m2@x.com", domain.RoleManager)

	c1, err := svc.Create(context.Background(), m1, ports.CreateUserInput{
		Email: "c1@x.com", Password: "password1", Role: domain.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("create c1: %v", err)
	}
	if _, err := svc.Create(context.Background(), m2, ports.CreateUserInput{
		Email: "c2@x.com", Password: "password1", Role: domain.RoleCustomer,
	}); err != nil {
		t.Fatalf("create c2: %v", err)
	}

	// Admin sees everyone.
	all, err := svc.List(context.Background(), admin)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("expected 5 users, got %d", len(all))
	}

	// A manager's list never includes a customer with a different
	// assigned manager.
	scoped, err := svc.List(context.Background(), m1)
	if err != nil {
		t.Fatalf("manager list: %v", err)
	}
	for _, u := range scoped {
		if u.Role == domain.RoleCustomer && !u.AssignedTo(m1.ID) {
			t.Fatalf("scoped list leaked customer %s", u.ID)
		}
	}
	foundOwn := false
	for _, u := range scoped {
		if u.ID == c1.ID {
			foundOwn = true
		}
	}
	if !foundOwn {
		t.Fatalf("scoped list missing manager's own customer")
	}

	// A customer sees only itself.
	cust, err := repo.FindByID(context.Background(), c1.ID)
	if err != nil {
		t.Fatalf("find customer: %v", err)
	}
	self, err := svc.List(context.Background(), cust)
	if err != nil {
		t.Fatalf("customer list: %v", err)
	}
	if len(self) != 1 || self[0].ID != c1.ID {
		t.Fatalf("expected self-only list, got %d entries", len(self))
	}
}

func TestUserService_List_EmptyScopeIsNotAnError(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo)

	manager := seedUser(t, repo, "mgr@x.com", domain.RoleManager)

	users, err := svc.List(context.Background(), manager)
	if err != nil {
		t.Fatalf("expected empty scope to list successfully, got %v", err)
	}
	if len(users) != 1 || users[0].ID != manager.ID {
		t.Fatalf("expected only the manager itself, got %d entries", len(users))
	}
}

func TestUserService_Update_RoleChangeIsAdminOnly(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo)

	admin := seedUser(t, repo, "admin@x.com", domain.RoleAdmin)
	manager := seedUser(t, repo, "mgr@x.com", domain.RoleManager)

	c, err := svc.Create(context.Background(), manager, ports.CreateUserInput{
		Email: "c@x.com", Password: "password1", Role: domain.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	newRole := domain.RoleManager
	if _, err := svc.Update(context.Background(), manager, c.ID, ports.UpdateUserInput{Role: &newRole}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for manager role change, got %v", err)
	}

	updated, err := svc.Update(context.Background(), admin, c.ID, ports.UpdateUserInput{Role: &newRole})
	if err != nil {
		t.Fatalf("admin role change: %v", err)
	}
	if updated.Role != domain.RoleManager {
		t.Fatalf("expected role manager, got %s", updated.Role)
	}
	if updated.Customer != nil {
		t.Fatalf("customer extension must be cleared on leaving the customer role")
	}
}

func TestUserService_Update_ManagerEditsOwnScopeOnly(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo)

	m1 := seedUser(t, repo, "m1@x.com", domain.RoleManager)
	m2 := seedUser(t, repo, "m2@x.com", domain.RoleManager)

	c, err := svc.Create(context.Background(), m1, ports.CreateUserInput{
		Email: "c@x.com", Password: "password1", Role: domain.RoleCustomer,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	phone := "555-0101"
	if _, err := svc.Update(context.Background(), m2, c.ID, ports.UpdateUserInput{Phone: &phone}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for out-of-scope edit, got %v", err)
	}

	updated, err := svc.Update(context.Background(), m1, c.ID, ports.UpdateUserInput{Phone: &phone})
	if err != nil {
		t.Fatalf("in-scope edit: %v", err)
	}
	if updated.Customer.Phone != phone {
		t.Fatalf("expected phone %s, got %s", phone, updated.Customer.Phone)
	}
}

func TestUserService_Deactivate_AdminOnly(t *testing.T) {
	repo := newStubUserRepo()
	svc := newUserService(repo)

	admin := seedUser(t, repo, "admin@x.com", domain.RoleAdmin)
	manager := seedUser(t, repo, "mgr@x.com", domain.RoleManager)
	customer := seedUser(t, repo, "c@x.com", domain.RoleCustomer)

	if err := svc.Deactivate(context.Background(), manager, customer.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	if err := svc.Deactivate(context.Background(), admin, customer.ID); err != nil {
		t.Fatalf("admin deactivate: %v", err)
	}
	got, err := repo.FindByID(context.Background(), customer.ID)
	if err != nil {
		t.Fatalf("record must survive deactivation: %v", err)
	}
	if got.IsActive {
		t.Fatalf("expected inactive user")
	}
}

func TestUserService_Activity_AdminOnly(t *testing.T) {
	repo := newStubUserRepo()
	auditRepo := &stubAuditRepo{}
	svc := NewUserService(repo, auditRepo, &stubRecorder{}, zerolog.Nop())

	admin := seedUser(t, repo, "admin@x.com", domain.RoleAdmin)
	manager := seedUser(t, repo, "mgr@x.com", domain.RoleManager)

	if _, err := svc.Activity(context.Background(), manager, 10); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Activity(context.Background(), admin, 10); err != nil {
		t.Fatalf("admin activity: %v", err)
	}
}
