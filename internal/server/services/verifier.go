package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/logging"
	"github.com/certisafe/certisafe/internal/server/models"
	"github.com/certisafe/certisafe/internal/server/repositories/repomanager"
)

// VerificationResult is the verdict for one lookup. Snapshot is nil when the
// certificate does not exist.
type VerificationResult struct {
	Found    bool
	Status   string
	Snapshot *models.CertificateSnapshot
}

// Verifier answers validity queries. It is a pure read: status is reported
// verbatim and never recomputed here. In particular a past-due certificate
// can still read 'valid' until the next expiry sweep runs; that staleness
// window is accepted.
type Verifier struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	logger       logging.Logger
	storeTimeout time.Duration
}

// NewVerifier constructs a Verifier.
func NewVerifier(db *sql.DB, m repomanager.RepositoryManager, storeTimeout time.Duration, l logging.Logger) *Verifier {
	return &Verifier{db: db, repomanager: m, storeTimeout: storeTimeout, logger: l.With("module", "verifier")}
}

// Verify looks a certificate up by its public identifier and reports its
// current validity plus the display snapshot.
func (s *Verifier) Verify(ctx context.Context, certificateID string) (*VerificationResult, error) {
	if certificateID == "" {
		return nil, fmt.Errorf("%w: missing certificate id", common.ErrorValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	snapshot, err := s.repomanager.Certificates(s.db).FindSnapshot(ctx, certificateID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &VerificationResult{Found: false}, nil
		}
		return nil, fmt.Errorf("error reading certificate: %w", err)
	}

	return &VerificationResult{
		Found:    true,
		Status:   snapshot.Status,
		Snapshot: snapshot,
	}, nil
}
