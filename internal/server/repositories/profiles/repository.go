package profiles

import (
	"context"

	"github.com/certisafe/certisafe/internal/server/models"
)

// Repository persists profiles, keyed naturally by email.
//
// Insert reports whether a row was actually written: false means another
// writer won the race on the email unique index and the caller should
// re-select. Existing rows are never updated through this interface.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.Profile, error)
	Insert(ctx context.Context, profile *models.Profile) (bool, error)
}
