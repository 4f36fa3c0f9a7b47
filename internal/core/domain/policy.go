package domain

// Operation identifies an action checked by the authorization policy.
type Operation string

const (
	OpViewUser             Operation = "view_user"
	OpListUsers            Operation = "list_users"
	OpListManagedCustomers Operation = "list_managed_customers"
	OpCreateUser           Operation = "create_user"
	OpUpdateUser           Operation = "update_user"
	OpDeactivateUser       Operation = "deactivate_user"
	OpReassignCustomer     Operation = "reassign_customer"
	OpViewActivity         Operation = "view_activity"
)

// Scope describes which rows a caller may see in a list operation.
type Scope int

const (
	// ScopeAll grants visibility over every user.
	ScopeAll Scope = iota
	// ScopeAssigned grants visibility over the caller and the customers
	// currently assigned to the caller.
	ScopeAssigned
	// ScopeSelf grants visibility over the caller's own record only.
	ScopeSelf
)

// ListScope computes the row visibility for list operations. An out-of-scope
// filter yields an empty list downstream, never an error.
func ListScope(actor *User) Scope {
	switch actor.Role {
	case RoleAdmin:
		return ScopeAll
	case RoleManager:
		return ScopeAssigned
	default:
		return ScopeSelf
	}
}

// creatableRoles is the per-role set of roles an actor may assign when
// creating a new user.
var creatableRoles = map[Role][]Role{
	RoleAdmin:   {RoleAdmin, RoleManager, RoleCustomer},
	RoleManager: {RoleCustomer},
}

// CanCreateRole reports whether actor may create a user with the given role.
func CanCreateRole(actor Role, newRole Role) bool {
	for _, r := range creatableRoles[actor] {
		if r == newRole {
			return true
		}
	}
	return false
}

// Authorize decides whether actor may perform op against target. It returns
// nil when allowed, ErrForbidden on insufficient privilege, and
// ErrPermissionDenied for reassignment attempts by non-admins. Reassignment
// stays admin-exclusive even when the target customer is currently assigned
// to the acting manager.
func Authorize(actor *User, op Operation, target *User) error {
	if actor == nil {
		return ErrTokenInvalid
	}

	switch op {
	case OpViewUser:
		if actor.Role == RoleAdmin || actor.ID == target.ID || target.AssignedTo(actor.ID) {
			return nil
		}
		return ErrForbidden

	case OpListUsers:
		// Always allowed; ListScope narrows what is visible.
		return nil

	case OpListManagedCustomers:
		if actor.Role == RoleManager {
			return nil
		}
		return ErrForbidden

	case OpCreateUser:
		if target != nil && CanCreateRole(actor.Role, target.Role) {
			return nil
		}
		if len(creatableRoles[actor.Role]) == 0 {
			return ErrForbidden
		}
		return ErrInvalidRole

	case OpUpdateUser:
		if actor.Role == RoleAdmin || target.AssignedTo(actor.ID) {
			return nil
		}
		return ErrForbidden

	case OpDeactivateUser, OpViewActivity:
		if actor.Role == RoleAdmin {
			return nil
		}
		return ErrForbidden

	case OpReassignCustomer:
		if actor.Role == RoleAdmin {
			return nil
		}
		return ErrPermissionDenied
	}

	return ErrForbidden
}
