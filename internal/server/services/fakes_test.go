package services

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/dbx"
	"github.com/certisafe/certisafe/internal/logging"
	"github.com/certisafe/certisafe/internal/server/config"
	"github.com/certisafe/certisafe/internal/server/models"
	auditlogrepo "github.com/certisafe/certisafe/internal/server/repositories/auditlog"
	certsrepo "github.com/certisafe/certisafe/internal/server/repositories/certificates"
	profilesrepo "github.com/certisafe/certisafe/internal/server/repositories/profiles"
	templatesrepo "github.com/certisafe/certisafe/internal/server/repositories/templates"
)

// --- helpers ---

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func testConfig() *config.Config {
	return &config.Config{
		PublicBaseURL:    "http://localhost:8080",
		LedgerSigningKey: "test-signing-key",
		MintMaxAttempts:  3,
		StoreTimeout:     time.Second,
	}
}

// --- fake repositories ---

type fakeProfilesRepo struct {
	profiles  map[string]*models.Profile // by email
	findErr   error
	insertErr error
	// when raceLoser is set, Insert reports false and plants racedProfile
	// so the re-select sees the winner's row
	raceLoser    bool
	racedProfile *models.Profile

	insertCalls int
}

func (f *fakeProfilesRepo) FindByEmail(ctx context.Context, email string) (*models.Profile, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if p, ok := f.profiles[email]; ok {
		return p, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeProfilesRepo) Insert(ctx context.Context, p *models.Profile) (bool, error) {
	f.insertCalls++
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if f.raceLoser {
		if f.profiles == nil {
			f.profiles = map[string]*models.Profile{}
		}
		f.profiles[p.Email] = f.racedProfile
		return false, nil
	}
	if f.profiles == nil {
		f.profiles = map[string]*models.Profile{}
	}
	f.profiles[p.Email] = p
	return true, nil
}

type fakeTemplatesRepo struct {
	templates map[string]*models.Template // by title
	findErr   error
	insertErr error
	raceLoser bool
	racedTpl  *models.Template
}

func (f *fakeTemplatesRepo) FindByTitle(ctx context.Context, title string) (*models.Template, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	if tpl, ok := f.templates[title]; ok {
		return tpl, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTemplatesRepo) Insert(ctx context.Context, tpl *models.Template) (bool, error) {
	if f.insertErr != nil {
		return false, f.insertErr
	}
	if f.raceLoser {
		if f.templates == nil {
			f.templates = map[string]*models.Template{}
		}
		f.templates[tpl.Title] = f.racedTpl
		return false, nil
	}
	if f.templates == nil {
		f.templates = map[string]*models.Template{}
	}
	f.templates[tpl.Title] = tpl
	return true, nil
}

type fakeCertsRepo struct {
	// existsResults is consumed one per ExistsByCertificateID call; when
	// exhausted, false is returned
	existsResults []bool
	existsErr     error
	existsCalls   int

	// insertErrs is consumed one per Insert call; nil means success
	insertErrs  []error
	insertCalls int
	inserted    []*models.Certificate

	snapshot    *models.CertificateSnapshot
	snapshotErr error

	revokeN   int64
	revokeErr error

	status    string
	statusErr error

	expireN   int64
	expireErr error
}

func (f *fakeCertsRepo) Insert(ctx context.Context, cert *models.Certificate) error {
	f.insertCalls++
	var err error
	if len(f.insertErrs) > 0 {
		err = f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
	}
	if err != nil {
		return err
	}
	f.inserted = append(f.inserted, cert)
	return nil
}

func (f *fakeCertsRepo) ExistsByCertificateID(ctx context.Context, certificateID string) (bool, error) {
	f.existsCalls++
	if f.existsErr != nil {
		return false, f.existsErr
	}
	if len(f.existsResults) > 0 {
		res := f.existsResults[0]
		f.existsResults = f.existsResults[1:]
		return res, nil
	}
	return false, nil
}

func (f *fakeCertsRepo) FindSnapshot(ctx context.Context, certificateID string) (*models.CertificateSnapshot, error) {
	if f.snapshotErr != nil {
		return nil, f.snapshotErr
	}
	return f.snapshot, nil
}

func (f *fakeCertsRepo) Status(ctx context.Context, certificateID string) (string, error) {
	if f.statusErr != nil {
		return "", f.statusErr
	}
	return f.status, nil
}

func (f *fakeCertsRepo) Revoke(ctx context.Context, certificateID, reason string) (int64, error) {
	if f.revokeErr != nil {
		return 0, f.revokeErr
	}
	return f.revokeN, nil
}

func (f *fakeCertsRepo) ExpireDue(ctx context.Context, now time.Time) (int64, error) {
	if f.expireErr != nil {
		return 0, f.expireErr
	}
	return f.expireN, nil
}

type fakeAuditRepo struct {
	appendErr error
	entries   []*models.AuditEntry
}

func (f *fakeAuditRepo) Append(ctx context.Context, entry *models.AuditEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.entries = append(f.entries, entry)
	return nil
}

// --- fake repository manager ---

type fakeRepoManager struct {
	p *fakeProfilesRepo
	t *fakeTemplatesRepo
	c *fakeCertsRepo
	a *fakeAuditRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		p: &fakeProfilesRepo{},
		t: &fakeTemplatesRepo{},
		c: &fakeCertsRepo{},
		a: &fakeAuditRepo{},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Profiles(db dbx.DBTX) profilesrepo.Repository        { return m.p }
func (m *fakeRepoManager) Templates(db dbx.DBTX) templatesrepo.Repository      { return m.t }
func (m *fakeRepoManager) Certificates(db dbx.DBTX) certsrepo.Repository       { return m.c }
func (m *fakeRepoManager) AuditLog(db dbx.DBTX) auditlogrepo.Repository        { return m.a }
