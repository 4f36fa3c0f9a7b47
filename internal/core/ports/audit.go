package ports

import (
	"context"

	"github.com/crmforge/accounts-api/internal/core/domain"
)

// AuditRepository persists audit entries.
type AuditRepository interface {
	Insert(ctx context.Context, entry *domain.AuditEntry) error
	ListRecent(ctx context.Context, limit int64) ([]*domain.AuditEntry, error)
}

// AuditRecorder accepts audit entries for asynchronous persistence. Record
// must not fail the caller: audit writes are best-effort.
type AuditRecorder interface {
	Record(entry domain.AuditEntry)
}
