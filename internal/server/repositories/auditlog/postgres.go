// Package auditlog provides the PostgreSQL-backed append-only audit trail.
package auditlog

import (
	"context"
	"fmt"

	"github.com/certisafe/certisafe/internal/dbx"
	"github.com/certisafe/certisafe/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append writes one audit entry.
func (r *PostgresRepository) Append(ctx context.Context, entry *models.AuditEntry) error {
	query :=
		`INSERT INTO audit_logs (id, action, target_id, details)
		 VALUES ($1, $2, $3, $4)
		 `

	_, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.Action, entry.TargetID, []byte(entry.Details))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
