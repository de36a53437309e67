// Package certificates provides the PostgreSQL-backed repository for the
// certificate ledger.
package certificates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/dbx"
	"github.com/certisafe/certisafe/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint
// violations.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Insert writes a new certificate row. A unique violation on the public
// identifier maps to common.ErrorDuplicateCertificateID.
func (r *PostgresRepository) Insert(ctx context.Context, cert *models.Certificate) error {
	query :=
		`INSERT INTO certificates
		 (id, certificate_id, profile_id, template_id, institution_id, issue_date, expiry_date, status, data_hash, qr_code)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 `

	_, err := r.db.ExecContext(ctx, query,
		cert.ID, cert.CertificateID, cert.ProfileID, cert.TemplateID, cert.InstitutionID,
		cert.IssueDate, cert.ExpiryDate, cert.Status, cert.DataHash, cert.QRCode)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrorDuplicateCertificateID
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

// ExistsByCertificateID reports whether the public identifier is already
// taken. The minter pre-checks candidates here before committing.
func (r *PostgresRepository) ExistsByCertificateID(ctx context.Context, certificateID string) (bool, error) {
	query :=
		`SELECT EXISTS (SELECT 1 FROM certificates WHERE certificate_id = $1)
		 `

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, certificateID).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	return exists, nil
}

// FindSnapshot returns the verification read model: the certificate joined
// with its profile and template. Returns common.ErrorNotFound for unknown ids.
func (r *PostgresRepository) FindSnapshot(ctx context.Context, certificateID string) (*models.CertificateSnapshot, error) {
	query :=
		`SELECT c.certificate_id, c.issue_date, c.expiry_date, c.status, c.revocation_reason,
		        c.data_hash, c.qr_code, p.full_name, p.email, t.title
		 FROM certificates c
		 JOIN profiles p ON c.profile_id = p.id
		 LEFT JOIN templates t ON c.template_id = t.id
		 WHERE c.certificate_id = $1
		 `

	s := &models.CertificateSnapshot{}
	err := r.db.QueryRowContext(ctx, query, certificateID).Scan(
		&s.CertificateID, &s.IssueDate, &s.ExpiryDate, &s.Status, &s.RevocationReason,
		&s.DataHash, &s.QRCode, &s.FullName, &s.Email, &s.TemplateTitle)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

// Status returns the current status of a certificate, or common.ErrorNotFound.
func (r *PostgresRepository) Status(ctx context.Context, certificateID string) (string, error) {
	query :=
		`SELECT status FROM certificates
		 WHERE certificate_id = $1
		 `

	var status string
	err := r.db.QueryRowContext(ctx, query, certificateID).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}

	return status, nil
}

// Revoke transitions a certificate from 'valid' to 'revoked', recording the
// reason. The guarded WHERE clause keeps the transition one-way; the caller
// disambiguates 0 rows updated into NotFound vs InvalidStateTransition.
func (r *PostgresRepository) Revoke(ctx context.Context, certificateID, reason string) (int64, error) {
	query :=
		`UPDATE certificates
		 SET status = 'revoked', revocation_reason = $2
		 WHERE certificate_id = $1 AND status = 'valid'
		 `

	res, err := r.db.ExecContext(ctx, query, certificateID, reason)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}

	return n, nil
}

// ExpireDue transitions every past-due valid certificate to 'expired' and
// returns the number of rows updated. Safe to run repeatedly.
func (r *PostgresRepository) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	query :=
		`UPDATE certificates
		 SET status = 'expired'
		 WHERE status = 'valid' AND expiry_date IS NOT NULL AND expiry_date < $1
		 `

	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}

	return n, nil
}
