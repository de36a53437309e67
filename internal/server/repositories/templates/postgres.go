// Package templates provides the PostgreSQL-backed repository for certificate
// templates.
package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/dbx"
	"github.com/certisafe/certisafe/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByTitle looks a template up by its natural key. Returns
// common.ErrorNotFound if no row exists.
func (r *PostgresRepository) FindByTitle(ctx context.Context, title string) (*models.Template, error) {
	query :=
		`SELECT id, title, description, institution_id, created_at FROM templates
		 WHERE title = $1
		 `

	tpl := &models.Template{}
	err := r.db.QueryRowContext(ctx, query, title).
		Scan(&tpl.ID, &tpl.Title, &tpl.Description, &tpl.InstitutionID, &tpl.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return tpl, nil
}

// Insert writes a new template, backing off silently if the title already
// exists. The returned bool is false when the conflict path was taken.
func (r *PostgresRepository) Insert(ctx context.Context, template *models.Template) (bool, error) {
	query :=
		`INSERT INTO templates (id, title, description, institution_id)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (title) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query,
		template.ID, template.Title, template.Description, template.InstitutionID)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}

	return n == 1, nil
}
