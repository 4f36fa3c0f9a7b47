package domain

import "time"

// Audit action types recorded by the services.
const (
	AuditSignup             = "signup"
	AuditSignin             = "signin"
	AuditTokenRejected      = "token_rejected"
	AuditUserCreated        = "user_created"
	AuditUserUpdated        = "user_updated"
	AuditUserDeactivated    = "user_deactivated"
	AuditCustomerReassigned = "customer_reassigned"
)

// AuditEntry records a single security-relevant event. Metadata never holds
// token material or password data.
type AuditEntry struct {
	ActorID    string            `json:"actor_id,omitempty"`
	Action     string            `json:"action"`
	EntityType string            `json:"entity_type,omitempty"`
	EntityID   string            `json:"entity_id,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}
