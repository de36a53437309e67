package templates

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/certisafe/certisafe/internal/common"
	"github.com/certisafe/certisafe/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const findQuery = `(?s)^SELECT\s+id,\s*title,\s*description,\s*institution_id,\s*created_at\s+FROM\s+templates\s+WHERE\s+title\s*=\s*\$1\s*$`
const insertQuery = `(?s)^INSERT\s+INTO\s+templates\s*\(id,\s*title,\s*description,\s*institution_id\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*ON\s+CONFLICT\s*\(title\)\s*DO\s+NOTHING\s*$`

func TestFindByTitle_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "title", "description", "institution_id", "created_at"}).
		AddRow("t-1", "Web Dev", "Auto-generated template", nil, time.Now())
	mock.ExpectQuery(findQuery).WithArgs("Web Dev").WillReturnRows(rows)

	got, err := repo.FindByTitle(context.Background(), "Web Dev")
	if err != nil {
		t.Fatalf("FindByTitle error: %v", err)
	}
	if got.ID != "t-1" || got.Title != "Web Dev" || got.InstitutionID != nil {
		t.Fatalf("unexpected template: %+v", got)
	}
}

func TestFindByTitle_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(findQuery).WithArgs("Unknown").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByTitle(context.Background(), "Unknown")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestInsert_Inserted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	inst := "inst-1"
	mock.ExpectExec(insertQuery).
		WithArgs("t-1", "Web Dev", "Auto-generated template", "inst-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	inserted, err := repo.Insert(context.Background(), &models.Template{
		ID: "t-1", Title: "Web Dev", Description: "Auto-generated template", InstitutionID: &inst,
	})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if !inserted {
		t.Fatalf("expected inserted=true")
	}
}

func TestInsert_ConflictLosesRace(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).
		WithArgs("t-2", "Web Dev", "Auto-generated template", nil).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Insert(context.Background(), &models.Template{
		ID: "t-2", Title: "Web Dev", Description: "Auto-generated template",
	})
	if err != nil {
		t.Fatalf("Insert error: %v", err)
	}
	if inserted {
		t.Fatalf("expected inserted=false on conflict")
	}
}

func TestInsert_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).
		WithArgs("t-1", "Web Dev", "", nil).
		WillReturnError(errors.New("db down"))

	_, err := repo.Insert(context.Background(), &models.Template{ID: "t-1", Title: "Web Dev"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
