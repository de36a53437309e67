package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/dbx"
	"github.com/certisafe/certisafe/internal/logging"
	"github.com/certisafe/certisafe/internal/server/models"
	"github.com/certisafe/certisafe/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// defaultRevocationReason is recorded when the caller gives none.
const defaultRevocationReason = "No reason provided"

// Revoker transitions certificates from 'valid' to 'revoked'. The status
// update and its REVOKE audit entry are one transaction.
type Revoker struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	logger       logging.Logger
	storeTimeout time.Duration
}

// NewRevoker constructs a Revoker.
func NewRevoker(db *sql.DB, m repomanager.RepositoryManager, storeTimeout time.Duration, l logging.Logger) *Revoker {
	return &Revoker{db: db, repomanager: m, storeTimeout: storeTimeout, logger: l.With("module", "revoker")}
}

// Revoke marks a valid certificate revoked with the given reason. Unknown ids
// return common.ErrorNotFound; certificates already revoked or expired return
// common.ErrorInvalidStateTransition. Both terminal states stay terminal.
func (s *Revoker) Revoke(ctx context.Context, certificateID, reason string) error {
	if certificateID == "" {
		return fmt.Errorf("%w: missing certificate id", common.ErrorValidation)
	}
	if reason == "" {
		reason = defaultRevocationReason
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		certs := s.repomanager.Certificates(tx)

		updated, err := certs.Revoke(ctx, certificateID, reason)
		if err != nil {
			return err
		}
		if updated == 0 {
			// guard matched nothing: either the id is unknown or the
			// certificate is no longer valid
			if _, err := certs.Status(ctx, certificateID); err != nil {
				return err
			}
			return common.ErrorInvalidStateTransition
		}

		details, err := json.Marshal(map[string]string{"reason": reason})
		if err != nil {
			return fmt.Errorf("error encoding audit details: %w", err)
		}

		entry := &models.AuditEntry{
			ID:       uuid.NewString(),
			Action:   models.ActionRevoke,
			TargetID: &certificateID,
			Details:  details,
		}
		if err := s.repomanager.AuditLog(tx).Append(ctx, entry); err != nil {
			return fmt.Errorf("error writing audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "certificate revoked", "certificate_id", certificateID, "reason", reason)
	return nil
}
