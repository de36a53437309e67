package templates

import (
	"context"

	"github.com/certisafe/certisafe/internal/server/models"
)

// Repository persists certificate templates, keyed naturally by title.
// Insert semantics mirror the profiles repository: false means the title
// already existed and the caller should re-select.
type Repository interface {
	FindByTitle(ctx context.Context, title string) (*models.Template, error)
	Insert(ctx context.Context, template *models.Template) (bool, error)
}
