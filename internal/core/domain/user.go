package domain

import (
	"errors"
	"time"
)

// Role classifies a user's privilege tier. The set is closed: raw strings
// are parsed exactly once at the API boundary, so no other value can exist
// inside the system.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleCustomer Role = "customer"
)

// ParseRole converts a raw string into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleManager, RoleCustomer:
		return Role(s), nil
	}
	return "", ErrInvalidRole
}

var ErrInvalidCredentials = errors.New("invalid credentials")
var ErrTokenInvalid = errors.New("token invalid")
var ErrTokenExpired = errors.New("token expired")
var ErrRoleMismatch = errors.New("token role mismatch")
var ErrUserNotFound = errors.New("user not found")
var ErrUserInactive = errors.New("user inactive")
var ErrDuplicateEmail = errors.New("email already registered")
var ErrInvalidRole = errors.New("invalid role")
var ErrForbidden = errors.New("access forbidden")
var ErrPermissionDenied = errors.New("permission denied")
var ErrNotAManager = errors.New("assigned manager must be an active manager")

// CustomerDetails is the role-specific extension carried only by users with
// RoleCustomer. AssignedManagerID, when set, references a manager-role user.
type CustomerDetails struct {
	Phone             string    `json:"phone,omitempty"`
	ShippingAddress   string    `json:"shipping_address,omitempty"`
	AssignedManagerID string    `json:"assigned_manager_id,omitempty"`
	AssignedAt        time.Time `json:"assigned_at,omitzero"`
}

// User models any authenticated principal. Authorization always uses the
// current Role; CreatedAsRole is an audit snapshot only.
type User struct {
	ID            string           `json:"id"`
	Email         string           `json:"email"`
	PasswordHash  string           `json:"-"`
	Role          Role             `json:"role"`
	IsActive      bool             `json:"is_active"`
	IsVerified    bool             `json:"is_verified"`
	CreatedBy     string           `json:"created_by,omitempty"`
	CreatedAsRole Role             `json:"created_as_role,omitempty"`
	Customer      *CustomerDetails `json:"customer,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// AssignedTo reports whether the user is a customer currently assigned to
// the given manager id.
func (u *User) AssignedTo(managerID string) bool {
	return u.Role == RoleCustomer && u.Customer != nil && u.Customer.AssignedManagerID == managerID
}
