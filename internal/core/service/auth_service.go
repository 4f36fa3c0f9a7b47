package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/crmforge/accounts-api/internal/core/domain"
	"github.com/crmforge/accounts-api/internal/core/ports"
)

// AuthService implements signup, signin, and token issue/validate.
type AuthService struct {
	repo      ports.UserRepository
	audit     ports.AuditRecorder
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(repo ports.UserRepository, audit ports.AuditRecorder, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 30 * 24 * time.Hour
	}
	return &AuthService{repo: repo, audit: audit, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

// Signup self-registers a new account with the lowest-privilege role. The
// role is never taken from the client.
func (s *AuthService) Signup(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateEmail
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Email:         email,
		PasswordHash:  string(hash),
		Role:          domain.RoleCustomer,
		IsActive:      true,
		IsVerified:    false,
		CreatedAsRole: domain.RoleCustomer,
		Customer:      &domain.CustomerDetails{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.Insert(ctx, user)
	if err != nil {
		return nil, err
	}

	s.audit.Record(domain.AuditEntry{
		ActorID:    created.ID,
		Action:     domain.AuditSignup,
		EntityType: "user",
		EntityID:   created.ID,
		CreatedAt:  now,
	})
	s.log.Info().Str("user_id", created.ID).Msg("user signed up")

	return created, nil
}

// Signin verifies credentials and mints a token. The failure is the same
// generic error whether the email is unknown, the account inactive, or the
// password wrong, so responses cannot be used to enumerate accounts.
func (s *AuthService) Signin(ctx context.Context, email, password string) (string, *domain.User, error) {
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.Issue(user)
	if err != nil {
		return "", nil, err
	}

	s.audit.Record(domain.AuditEntry{
		ActorID:   user.ID,
		Action:    domain.AuditSignin,
		CreatedAt: time.Now().UTC(),
	})

	return token, user, nil
}

// Issue mints an HS256 token carrying the subject id, the user's current
// role, and an expiry.
func (s *AuthService) Issue(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.ID,
		"role": string(user.Role),
		"exp":  time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

// Validate resolves a raw token to a trusted user. Signature and expiry are
// checked first (cheap, no datastore access); then the subject is re-read
// and the embedded role compared against the current one. The result
// therefore depends on mutable store state: a demotion after issuance
// invalidates the token on the next request.
func (s *AuthService) Validate(ctx context.Context, rawToken string) (*domain.User, error) {
	claims := jwt.MapClaims{}
	tkn, err := jwt.ParseWithClaims(rawToken, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}
	if !tkn.Valid {
		return nil, domain.ErrTokenInvalid
	}

	sub, _ := claims["sub"].(string)
	rawRole, _ := claims["role"].(string)
	if sub == "" || rawRole == "" {
		return nil, domain.ErrTokenInvalid
	}
	tokenRole, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, domain.ErrTokenInvalid
	}

	user, err := s.repo.FindByID(ctx, sub)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUserInactive
	}

	if user.Role != tokenRole {
		s.log.Warn().
			Str("user_id", user.ID).
			Str("token_role", string(tokenRole)).
			Str("current_role", string(user.Role)).
			Msg("token role mismatch, forcing re-authentication")
		s.audit.Record(domain.AuditEntry{
			ActorID:    user.ID,
			Action:     domain.AuditTokenRejected,
			EntityType: "user",
			EntityID:   user.ID,
			Metadata:   map[string]string{"reason": "role_mismatch"},
			CreatedAt:  time.Now().UTC(),
		})
		return nil, domain.ErrRoleMismatch
	}

	return user, nil
}
