package repomanager

import (
	"context"
	"database/sql"

	"github.com/certisafe/certisafe/internal/dbx"
	"github.com/certisafe/certisafe/internal/server/repositories/auditlog"
	"github.com/certisafe/certisafe/internal/server/repositories/certificates"
	"github.com/certisafe/certisafe/internal/server/repositories/profiles"
	"github.com/certisafe/certisafe/internal/server/repositories/templates"
)

// RepositoryManager vends repository implementations bound to a DBTX, so the
// same repositories work over *sql.DB and inside dbx.WithTx transactions.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Profiles(db dbx.DBTX) profiles.Repository
	Templates(db dbx.DBTX) templates.Repository
	Certificates(db dbx.DBTX) certificates.Repository
	AuditLog(db dbx.DBTX) auditlog.Repository
}
