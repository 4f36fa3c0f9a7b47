package ports

import (
	"context"

	"github.com/crmforge/accounts-api/internal/core/domain"
)

// AuthService implements self-registration, credential verification, and
// token issuance/validation.
type AuthService interface {
	// Signup self-registers a new account. The role is never caller-supplied:
	// every self-registered user gets the lowest-privilege role, unverified.
	Signup(ctx context.Context, email, password string) (*domain.User, error)
	// Signin verifies credentials and returns a signed token. Failures are
	// always domain.ErrInvalidCredentials, whether the email is unknown, the
	// user inactive, or the password wrong.
	Signin(ctx context.Context, email, password string) (string, *domain.User, error)
	// Issue mints a token embedding the user's id and current role.
	Issue(user *domain.User) (string, error)
	// Validate turns a raw bearer token into a trusted user. Beyond signature
	// and expiry it re-fetches the subject and rejects the token when the
	// embedded role no longer matches the user's current role, so a role
	// change is observed on the very next request.
	Validate(ctx context.Context, rawToken string) (*domain.User, error)
}
