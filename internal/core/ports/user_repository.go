package ports

import (
	"context"
	"time"

	"github.com/crmforge/accounts-api/internal/core/domain"
)

// UserRepository defines the persistence interface for user records.
type UserRepository interface {
	// Insert stores a new user; returns domain.ErrDuplicateEmail when an
	// active user already holds the email.
	Insert(ctx context.Context, user *domain.User) (*domain.User, error)
	// FindByEmail looks up an active user by email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	// FindByID looks up a user regardless of active flag; the caller decides
	// how inactivity is treated.
	FindByID(ctx context.Context, id string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	// ListByAssignedManager returns all customers whose assigned manager is
	// the given user id.
	ListByAssignedManager(ctx context.Context, managerID string) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	SetActive(ctx context.Context, id string, active bool) error
	// Reassign atomically updates a customer's assigned manager and
	// assignment timestamp.
	Reassign(ctx context.Context, customerID, managerID string, at time.Time) (*domain.User, error)
}
