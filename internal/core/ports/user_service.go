package ports

import (
	"context"

	"github.com/crmforge/accounts-api/internal/core/domain"
)

// CreateUserInput carries the fields for privileged user creation.
type CreateUserInput struct {
	Email             string
	Password          string
	Role              domain.Role
	Phone             string
	ShippingAddress   string
	AssignedManagerID string
}

// UpdateUserInput carries optional field updates; nil means unchanged.
type UpdateUserInput struct {
	Role            *domain.Role
	IsVerified      *bool
	Phone           *string
	ShippingAddress *string
}

// UserService implements user CRUD under the authorization policy.
type UserService interface {
	Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error)
	// List returns the users visible to actor under its list scope. An
	// out-of-scope view is an empty list, not an error.
	List(ctx context.Context, actor *domain.User) ([]*domain.User, error)
	Create(ctx context.Context, actor *domain.User, in CreateUserInput) (*domain.User, error)
	Update(ctx context.Context, actor *domain.User, id string, in UpdateUserInput) (*domain.User, error)
	// Deactivate flips the active flag; user records are never hard-deleted
	// while audit or assignment records reference them.
	Deactivate(ctx context.Context, actor *domain.User, id string) error
	Activity(ctx context.Context, actor *domain.User, limit int64) ([]*domain.AuditEntry, error)
}

// AssignmentService maintains the manager-to-customer assignment relation.
type AssignmentService interface {
	// Reassign moves a customer to a new manager. Admin-exclusive, enforced
	// here again independently of the policy check upstream.
	Reassign(ctx context.Context, actor *domain.User, customerID, newManagerID string) (*domain.User, error)
	// CustomersFor returns the customers currently assigned to the manager.
	CustomersFor(ctx context.Context, manager *domain.User) ([]*domain.User, error)
}
