package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/certisafe/certisafe/internal/dbx"
	"github.com/certisafe/certisafe/internal/logging"
	"github.com/certisafe/certisafe/internal/server/models"
	"github.com/certisafe/certisafe/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Sweeper transitions past-due valid certificates to 'expired'. It is the only
// writer of that transition; verification never expires lazily.
type Sweeper struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	logger       logging.Logger
	storeTimeout time.Duration
}

// NewSweeper constructs a Sweeper.
func NewSweeper(db *sql.DB, m repomanager.RepositoryManager, storeTimeout time.Duration, l logging.Logger) *Sweeper {
	return &Sweeper{db: db, repomanager: m, storeTimeout: storeTimeout, logger: l.With("module", "sweeper")}
}

// Sweep expires every valid certificate whose expiry date is before now and
// writes one AUTO_EXPIRY summary entry recording the count. A run that finds
// no candidates writes no audit entry. Repeat runs are idempotent.
func (s *Sweeper) Sweep(ctx context.Context, now time.Time) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var expired int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repomanager.Certificates(tx).ExpireDue(ctx, now)
		if err != nil {
			return err
		}
		expired = n

		if n == 0 {
			return nil
		}

		details, err := json.Marshal(map[string]int64{"expired_count": n})
		if err != nil {
			return fmt.Errorf("error encoding audit details: %w", err)
		}

		entry := &models.AuditEntry{
			ID:      uuid.NewString(),
			Action:  models.ActionAutoExpiry,
			Details: details,
		}
		if err := s.repomanager.AuditLog(tx).Append(ctx, entry); err != nil {
			return fmt.Errorf("error writing audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if expired > 0 {
		s.logger.Info(ctx, "certificates expired", "count", expired)
	}
	return expired, nil
}

// Run sweeps on the given interval until ctx is cancelled. Errors are logged
// and the next tick tries again.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info(ctx, "expiry sweeper started", "interval", interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "expiry sweeper stopped")
			return
		case <-ticker.C:
			if _, err := s.Sweep(ctx, time.Now()); err != nil {
				s.logger.Error(ctx, "expiry sweep failed", "error", err.Error())
			}
		}
	}
}
