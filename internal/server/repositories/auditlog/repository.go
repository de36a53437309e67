package auditlog

import (
	"context"

	"github.com/certisafe/certisafe/internal/server/models"
)

// Repository appends entries to the audit log. The log is append-only; there
// is deliberately no update or delete operation.
type Repository interface {
	Append(ctx context.Context, entry *models.AuditEntry) error
}
