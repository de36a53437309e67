package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/dbx"
	"github.com/certisafe/certisafe/internal/logging"
	"github.com/certisafe/certisafe/internal/server/config"
	"github.com/certisafe/certisafe/internal/server/mint"
	"github.com/certisafe/certisafe/internal/server/models"
	"github.com/certisafe/certisafe/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// remintBackoff is the pause between identifier collision retries. Collisions
// are random, not load-driven, so a short constant backoff is enough.
const remintBackoff = 10 * time.Millisecond

// IssueRequest carries the caller-supplied fields of one issuance.
type IssueRequest struct {
	RecipientName  string
	RecipientEmail string
	CourseTitle    string
	ExpiryDate     *time.Time
	InstitutionID  *string
}

// IssueResult is what a successful issuance hands back to the caller.
type IssueResult struct {
	CertificateID string
	DataHash      string
}

// Issuer mints certificates and commits them to the ledger. Each commit writes
// the certificate row and its audit entry in a single transaction; a
// write-time race on the public identifier triggers a bounded remint.
type Issuer struct {
	db           *sql.DB
	repomanager  repomanager.RepositoryManager
	resolver     *Resolver
	logger       logging.Logger
	baseURL      string
	signingKey   []byte
	maxAttempts  int
	storeTimeout time.Duration
	now          func() time.Time
}

// NewIssuer constructs an Issuer using repositories and server config. The
// mint attempt bound is clamped to at least one attempt.
func NewIssuer(db *sql.DB, m repomanager.RepositoryManager, resolver *Resolver, cfg *config.Config, l logging.Logger) *Issuer {
	maxAttempts := cfg.MintMaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Issuer{
		db:           db,
		repomanager:  m,
		resolver:     resolver,
		logger:       l.With("module", "issuer"),
		baseURL:      cfg.PublicBaseURL,
		signingKey:   []byte(cfg.LedgerSigningKey),
		maxAttempts:  maxAttempts,
		storeTimeout: cfg.StoreTimeout,
		now:          time.Now,
	}
}

// Issue runs one full issuance: resolve identities, mint an identifier and
// hash, and commit the certificate with its ISSUE_COMMIT audit entry.
func (s *Issuer) Issue(ctx context.Context, req IssueRequest) (*IssueResult, error) {
	return s.issue(ctx, req, models.ActionIssueCommit)
}

func (s *Issuer) issue(ctx context.Context, req IssueRequest, action string) (*IssueResult, error) {
	if err := validateIssueRequest(req); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	profileID, err := s.resolver.ResolveProfile(ctx, req.RecipientName, req.RecipientEmail)
	if err != nil {
		return nil, err
	}

	templateID, err := s.resolver.ResolveTemplate(ctx, req.CourseTitle, req.InstitutionID)
	if err != nil {
		return nil, err
	}

	issued := s.now()

	var result *IssueResult
	backoff := retry.WithMaxRetries(uint64(s.maxAttempts-1), retry.NewConstant(remintBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		sequence, err := mint.RandomSequence()
		if err != nil {
			return fmt.Errorf("error generating sequence: %w", err)
		}
		certificateID := mint.NewCertificateID(req.CourseTitle, issued, sequence)

		// never trust entropy alone: check the candidate against the store
		exists, err := s.repomanager.Certificates(s.db).ExistsByCertificateID(ctx, certificateID)
		if err != nil {
			return err
		}
		if exists {
			return retry.RetryableError(common.ErrorDuplicateCertificateID)
		}

		dataHash, err := mint.DataHash(certificateID, req.RecipientEmail, req.CourseTitle, issued)
		if err != nil {
			return err
		}

		qrCode, err := mint.QRDataURL(mint.VerificationURL(s.baseURL, certificateID))
		if err != nil {
			return err
		}

		cert := &models.Certificate{
			ID:            uuid.NewString(),
			CertificateID: certificateID,
			ProfileID:     profileID,
			TemplateID:    templateID,
			InstitutionID: req.InstitutionID,
			IssueDate:     issued,
			ExpiryDate:    req.ExpiryDate,
			Status:        models.StatusValid,
			DataHash:      dataHash,
			QRCode:        qrCode,
		}

		if err := s.commit(ctx, cert, action); err != nil {
			// someone else took the id between the pre-check and the insert
			if errors.Is(err, common.ErrorDuplicateCertificateID) {
				return retry.RetryableError(err)
			}
			return err
		}

		result = &IssueResult{CertificateID: certificateID, DataHash: dataHash}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorDuplicateCertificateID) {
			return nil, common.ErrorCollisionExhausted
		}
		return nil, err
	}

	s.logger.Info(ctx, "certificate issued",
		"certificate_id", result.CertificateID, "email", req.RecipientEmail)
	return result, nil
}

// commit writes the certificate row and its audit entry atomically: both rows
// become visible together or not at all.
func (s *Issuer) commit(ctx context.Context, cert *models.Certificate, action string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Certificates(tx).Insert(ctx, cert); err != nil {
			return err
		}

		details, err := json.Marshal(map[string]string{
			"signature": mint.Signature(s.signingKey, cert.DataHash),
			"algorithm": "hmac-sha256",
		})
		if err != nil {
			return fmt.Errorf("error encoding audit details: %w", err)
		}

		entry := &models.AuditEntry{
			ID:       uuid.NewString(),
			Action:   action,
			TargetID: &cert.CertificateID,
			Details:  details,
		}
		if err := s.repomanager.AuditLog(tx).Append(ctx, entry); err != nil {
			return fmt.Errorf("error writing audit entry: %w", err)
		}
		return nil
	})
}

func validateIssueRequest(req IssueRequest) error {
	switch {
	case req.RecipientName == "":
		return fmt.Errorf("%w: missing recipient name", common.ErrorValidation)
	case req.RecipientEmail == "":
		return fmt.Errorf("%w: missing recipient email", common.ErrorValidation)
	case req.CourseTitle == "":
		return fmt.Errorf("%w: missing course title", common.ErrorValidation)
	}
	return nil
}
