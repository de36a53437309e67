// Package profiles provides the PostgreSQL-backed repository for recipient
// profiles.
package profiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/dbx"
	"github.com/certisafe/certisafe/internal/server/models"
)

// PostgresRepository implements profile storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindByEmail looks a profile up by its natural key. Returns
// common.ErrorNotFound if no row exists.
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query :=
		`SELECT id, full_name, email, is_blocked, created_at FROM profiles
		 WHERE email = $1
		 `

	p := &models.Profile{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&p.ID, &p.FullName, &p.Email, &p.IsBlocked, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

// Insert writes a new profile, backing off silently if the email already
// exists. The returned bool is false when the conflict path was taken.
func (r *PostgresRepository) Insert(ctx context.Context, profile *models.Profile) (bool, error) {
	query :=
		`INSERT INTO profiles (id, full_name, email)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (email) DO NOTHING
		 `

	res, err := r.db.ExecContext(ctx, query, profile.ID, profile.FullName, profile.Email)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}

	return n == 1, nil
}
