package services

import (
	"context"
	"errors"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/logging"
	"github.com/certisafe/certisafe/internal/server/models"
)

// Row result statuses.
const (
	RowStatusSuccess = "success"
	RowStatusError   = "error"
)

// RowResult reports the outcome of one bulk issuance row.
type RowResult struct {
	Email         string
	CertificateID string
	Status        string
	Message       string
}

// BulkIssuer drives the issuer over a batch of rows with per-row failure
// isolation: a failed row is captured as an error result and never rolls back
// rows already committed.
type BulkIssuer struct {
	issuer *Issuer
	logger logging.Logger
}

// NewBulkIssuer constructs a BulkIssuer.
func NewBulkIssuer(issuer *Issuer, l logging.Logger) *BulkIssuer {
	return &BulkIssuer{issuer: issuer, logger: l.With("module", "bulk")}
}

// BulkIssue processes rows sequentially and returns one result per input row,
// in input order. Cancelling ctx stops further rows best-effort; rows not
// reached are reported as errors so the caller can retry exactly those.
func (s *BulkIssuer) BulkIssue(ctx context.Context, rows []IssueRequest) []RowResult {
	results := make([]RowResult, 0, len(rows))

	for i, row := range rows {
		if err := ctx.Err(); err != nil {
			s.logger.Warn(ctx, "bulk issuance aborted", "processed", i, "total", len(rows))
			for _, rest := range rows[i:] {
				results = append(results, RowResult{
					Email:   rest.RecipientEmail,
					Status:  RowStatusError,
					Message: "batch aborted",
				})
			}
			break
		}

		res, err := s.issuer.issue(ctx, row, models.ActionBulkIssueItem)
		if err != nil {
			results = append(results, RowResult{
				Email:   row.RecipientEmail,
				Status:  RowStatusError,
				Message: rowErrorMessage(err),
			})
			continue
		}

		results = append(results, RowResult{
			Email:         row.RecipientEmail,
			CertificateID: res.CertificateID,
			Status:        RowStatusSuccess,
		})
	}

	return results
}

// rowErrorMessage folds the error taxonomy into the short per-row messages
// the batch result carries.
func rowErrorMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return "Missing fields"
	case errors.Is(err, common.ErrorProfileBlocked):
		return "Recipient is blocked"
	case errors.Is(err, common.ErrorCollisionExhausted):
		return "Could not allocate certificate id"
	default:
		return "Issuance failed"
	}
}
