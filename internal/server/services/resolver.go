// Package services contains the server-side business logic: identity
// resolution, certificate issuance, verification, revocation, the expiry
// sweep, and bulk issuance.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/logging"
	"github.com/certisafe/certisafe/internal/server/models"
	"github.com/certisafe/certisafe/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// autoTemplateDescription marks templates created implicitly on first
// reference, as opposed to ones managed through the admin surface.
const autoTemplateDescription = "Auto-generated template"

// Resolver finds or creates the profile and template rows an issuance depends
// on, by natural key. Race safety comes from the unique indexes on
// profiles.email and templates.title plus insert-then-reselect: concurrent
// resolvers for the same key converge on a single row.
type Resolver struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

// NewResolver constructs a Resolver.
func NewResolver(db *sql.DB, m repomanager.RepositoryManager, l logging.Logger) *Resolver {
	return &Resolver{db: db, repomanager: m, logger: l.With("module", "resolver")}
}

// ResolveProfile returns the id of the profile with the given email, creating
// the row if it does not exist. Existing rows are returned untouched; the
// supplied name is only used for a newly created profile. A blocked profile
// refuses issuance with common.ErrorProfileBlocked.
func (r *Resolver) ResolveProfile(ctx context.Context, fullName, email string) (string, error) {
	repo := r.repomanager.Profiles(r.db)

	p, err := repo.FindByEmail(ctx, email)
	if err == nil {
		if p.IsBlocked {
			return "", common.ErrorProfileBlocked
		}
		return p.ID, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", fmt.Errorf("error resolving profile: %w", err)
	}

	created := &models.Profile{ID: uuid.NewString(), FullName: fullName, Email: email}
	inserted, err := repo.Insert(ctx, created)
	if err != nil {
		return "", fmt.Errorf("error creating profile: %w", err)
	}
	if inserted {
		r.logger.Info(ctx, "profile created", "email", email)
		return created.ID, nil
	}

	// lost the insert race; the winner's row is authoritative
	p, err = repo.FindByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("error re-reading profile: %w", err)
	}
	if p.IsBlocked {
		return "", common.ErrorProfileBlocked
	}
	return p.ID, nil
}

// ResolveTemplate returns the id of the template with the given title,
// creating the row if it does not exist. Existing rows keep their attributes.
func (r *Resolver) ResolveTemplate(ctx context.Context, title string, institutionID *string) (string, error) {
	repo := r.repomanager.Templates(r.db)

	tpl, err := repo.FindByTitle(ctx, title)
	if err == nil {
		return tpl.ID, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return "", fmt.Errorf("error resolving template: %w", err)
	}

	created := &models.Template{
		ID:            uuid.NewString(),
		Title:         title,
		Description:   autoTemplateDescription,
		InstitutionID: institutionID,
	}
	inserted, err := repo.Insert(ctx, created)
	if err != nil {
		return "", fmt.Errorf("error creating template: %w", err)
	}
	if inserted {
		r.logger.Info(ctx, "template created", "title", title)
		return created.ID, nil
	}

	tpl, err = repo.FindByTitle(ctx, title)
	if err != nil {
		return "", fmt.Errorf("error re-reading template: %w", err)
	}
	return tpl.ID, nil
}
