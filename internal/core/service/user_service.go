package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/crmforge/accounts-api/internal/core/domain"
	"github.com/crmforge/accounts-api/internal/core/ports"
)

// UserService implements user CRUD gated by the authorization policy.
type UserService struct {
	repo      ports.UserRepository
	auditRepo ports.AuditRepository
	audit     ports.AuditRecorder
	log       zerolog.Logger
}

func NewUserService(repo ports.UserRepository, auditRepo ports.AuditRepository, audit ports.AuditRecorder, log zerolog.Logger) *UserService {
	return &UserService{repo: repo, auditRepo: auditRepo, audit: audit, log: log}
}

func (s *UserService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(actor, domain.OpViewUser, target); err != nil {
		return nil, err
	}
	return target, nil
}

// List returns the users visible to actor. Managers see themselves plus
// their assigned customers; a manager with no assignments gets an empty
// customer set, never an error.
func (s *UserService) List(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if err := domain.Authorize(actor, domain.OpListUsers, nil); err != nil {
		return nil, err
	}

	switch domain.ListScope(actor) {
	case domain.ScopeAll:
		return s.repo.List(ctx)
	case domain.ScopeAssigned:
		assigned, err := s.repo.ListByAssignedManager(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		return append([]*domain.User{actor}, assigned...), nil
	default:
		return []*domain.User{actor}, nil
	}
}

// Create adds a user on behalf of actor. The new user's role is constrained
// by the actor's own: managers may only create customers, only admins may
// create admins or managers.
func (s *UserService) Create(ctx context.Context, actor *domain.User, in ports.CreateUserInput) (*domain.User, error) {
	if err := domain.Authorize(actor, domain.OpCreateUser, &domain.User{Role: in.Role}); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, in.Email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:         in.Email,
		PasswordHash:  string(hash),
		Role:          in.Role,
		IsActive:      true,
		IsVerified:    true,
		CreatedBy:     actor.ID,
		CreatedAsRole: in.Role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if in.Role == domain.RoleCustomer {
		details := &domain.CustomerDetails{
			Phone:           in.Phone,
			ShippingAddress: in.ShippingAddress,
		}
		managerID, err := s.resolveInitialManager(ctx, actor, in.AssignedManagerID)
		if err != nil {
			return nil, err
		}
		if managerID != "" {
			details.AssignedManagerID = managerID
			details.AssignedAt = now
		}
		user.Customer = details
	}

	created, err := s.repo.Insert(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEntry{
		ActorID:    actor.ID,
		Action:     domain.AuditUserCreated,
		EntityType: "user",
		EntityID:   created.ID,
		Metadata:   map[string]string{"role": string(created.Role)},
		CreatedAt:  now,
	})
	s.log.Info().Str("user_id", created.ID).Str("role", string(created.Role)).Str("created_by", actor.ID).Msg("user created")

	return created, nil
}

// resolveInitialManager decides the assigned manager for a new customer.
// Managers always get their own customers; admins may name any active
// manager or leave the customer unassigned.
func (s *UserService) resolveInitialManager(ctx context.Context, actor *domain.User, requested string) (string, error) {
	if actor.Role == domain.RoleManager {
		if requested != "" && requested != actor.ID {
			return "", domain.ErrPermissionDenied
		}
		return actor.ID, nil
	}
	if requested == "" {
		return "", nil
	}
	mgr, err := s.repo.FindByID(ctx, requested)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrNotAManager
		}
		return "", err
	}
	if mgr.Role != domain.RoleManager || !mgr.IsActive {
		return "", domain.ErrNotAManager
	}
	return mgr.ID, nil
}

// Update applies partial changes to a user. Role changes are admin-only;
// the next request from the affected user fails token validation and must
// re-authenticate.
func (s *UserService) Update(ctx context.Context, actor *domain.User, id string, in ports.UpdateUserInput) (*domain.User, error) {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.Authorize(actor, domain.OpUpdateUser, target); err != nil {
		return nil, err
	}
	if in.Role != nil && actor.Role != domain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	changed := []string{}
	if in.Role != nil && *in.Role != target.Role {
		target.Role = *in.Role
		if target.Role == domain.RoleCustomer {
			if target.Customer == nil {
				target.Customer = &domain.CustomerDetails{}
			}
		} else {
			// Extension data is meaningless outside the customer role.
			target.Customer = nil
		}
		changed = append(changed, "role")
	}
	if in.IsVerified != nil {
		target.IsVerified = *in.IsVerified
		changed = append(changed, "is_verified")
	}
	if target.Customer != nil {
		if in.Phone != nil {
			target.Customer.Phone = *in.Phone
			changed = append(changed, "phone")
		}
		if in.ShippingAddress != nil {
			target.Customer.ShippingAddress = *in.ShippingAddress
			changed = append(changed, "shipping_address")
		}
	}
	target.UpdatedAt = time.Now().UTC()

	updated, err := s.repo.Update(ctx, target)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEntry{
		ActorID:    actor.ID,
		Action:     domain.AuditUserUpdated,
		EntityType: "user",
		EntityID:   updated.ID,
		Metadata:   map[string]string{"fields": strings.Join(changed, ",")},
		CreatedAt:  updated.UpdatedAt,
	})

	return updated, nil
}

func (s *UserService) Deactivate(ctx context.Context, actor *domain.User, id string) error {
	target, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := domain.Authorize(actor, domain.OpDeactivateUser, target); err != nil {
		return err
	}

	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}

	s.audit.Record(domain.AuditEntry{
		ActorID:    actor.ID,
		Action:     domain.AuditUserDeactivated,
		EntityType: "user",
		EntityID:   id,
		CreatedAt:  time.Now().UTC(),
	})
	s.log.Info().Str("user_id", id).Str("actor_id", actor.ID).Msg("user deactivated")

	return nil
}

func (s *UserService) Activity(ctx context.Context, actor *domain.User, limit int64) ([]*domain.AuditEntry, error) {
	if err := domain.Authorize(actor, domain.OpViewActivity, nil); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.auditRepo.ListRecent(ctx, limit)
}
