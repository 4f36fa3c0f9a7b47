package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/crmforge/accounts-api/internal/core/domain"
	"github.com/crmforge/accounts-api/internal/core/ports"
)

// AssignmentService maintains the manager-to-customer assignment relation.
type AssignmentService struct {
	repo  ports.UserRepository
	audit ports.AuditRecorder
	log   zerolog.Logger
}

func NewAssignmentService(repo ports.UserRepository, audit ports.AuditRecorder, log zerolog.Logger) *AssignmentService {
	return &AssignmentService{repo: repo, audit: audit, log: log}
}

// Reassign moves a customer to a new manager. Only admins may reassign;
// a manager is rejected even for customers currently assigned to them. The
// role is checked here again independently of the policy gate upstream.
func (s *AssignmentService) Reassign(ctx context.Context, actor *domain.User, customerID, newManagerID string) (*domain.User, error) {
	if actor == nil || actor.Role != domain.RoleAdmin {
		return nil, domain.ErrPermissionDenied
	}

	customer, err := s.repo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if customer.Role != domain.RoleCustomer {
		return nil, domain.ErrUserNotFound
	}

	manager, err := s.repo.FindByID(ctx, newManagerID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrNotAManager
		}
		return nil, err
	}
	if manager.Role != domain.RoleManager || !manager.IsActive {
		return nil, domain.ErrNotAManager
	}

	previous := ""
	if customer.Customer != nil {
		previous = customer.Customer.AssignedManagerID
	}

	now := time.Now().UTC()
	updated, err := s.repo.Reassign(ctx, customerID, newManagerID, now)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEntry{
		ActorID:    actor.ID,
		Action:     domain.AuditCustomerReassigned,
		EntityType: "customer",
		EntityID:   customerID,
		Metadata: map[string]string{
			"previous_manager": previous,
			"new_manager":      newManagerID,
		},
		CreatedAt: now,
	})
	s.log.Info().
		Str("customer_id", customerID).
		Str("previous_manager", previous).
		Str("new_manager", newManagerID).
		Str("actor_id", actor.ID).
		Msg("customer reassigned")

	return updated, nil
}

// CustomersFor returns the customers currently assigned to the manager.
// Results reflect the assignment state at call time.
func (s *AssignmentService) CustomersFor(ctx context.Context, manager *domain.User) ([]*domain.User, error) {
	if err := domain.Authorize(manager, domain.OpListManagedCustomers, nil); err != nil {
		return nil, err
	}
	return s.repo.ListByAssignedManager(ctx, manager.ID)
}
