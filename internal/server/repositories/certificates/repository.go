package certificates

import (
	"context"
	"time"

	"github.com/certisafe/certisafe/internal/server/models"
)

// Repository persists certificate ledger rows.
//
// Insert surfaces common.ErrorDuplicateCertificateID when the public
// identifier loses the uniqueness race at write time; the issuer treats that
// as a remint signal. Revoke only touches rows still in 'valid' status and
// reports the number of rows updated; ExpireDue is the sweeper's bounded
// batch transition.
type Repository interface {
	Insert(ctx context.Context, cert *models.Certificate) error
	ExistsByCertificateID(ctx context.Context, certificateID string) (bool, error)
	FindSnapshot(ctx context.Context, certificateID string) (*models.CertificateSnapshot, error)
	Status(ctx context.Context, certificateID string) (string, error)
	Revoke(ctx context.Context, certificateID, reason string) (int64, error)
	ExpireDue(ctx context.Context, now time.Time) (int64, error)
}
