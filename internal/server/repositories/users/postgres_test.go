package users

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/onboarding/internal/common"
	"github.com/dmitrijs2005/onboarding/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	aliceID = "7b0c4a3e-1f1e-4c1b-9a57-2d7cfa0b6f01"
	bobID   = "0e8b1c55-95a4-4d8e-8c63-3a0f3b2a9c02"
)

var columns = []string{"id", "name", "email", "password_hash", "role", "team", "phone",
	"start_date", "status", "preferred_language", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func aliceRow(ts time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(columns).
		AddRow(aliceID, "Alice", "alice@example.com", "$2a$10$hash", "admin", "platform", "",
			ts, "active", "en", ts)
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*name,\s*email,\s*password_hash,.*\)\s*VALUES\s*\(\$1,.*\$10\)\s*RETURNING\s+created_at\s*$`
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(q).
		WithArgs(sqlmock.AnyArg(), "Alice", "alice@example.com", "hash", "user", "", "",
			sqlmock.AnyArg(), "pending", "en").
		WillReturnRows(sqlmock.NewRows([]string{"created_at"}).AddRow(created))

	u := &models.User{
		Name: "Alice", Email: "alice@example.com", PasswordHash: "hash",
		Role: models.RoleUser, Status: models.StatusPending, PreferredLanguage: "en",
	}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID == "" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DuplicateEmail(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com"})
	if !errors.Is(err, common.ErrDuplicateEmail) {
		t.Fatalf("want common.ErrDuplicateEmail, got %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{Email: "alice@example.com"})
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
	if !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestFindByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*name,\s*email,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).
		WithArgs("alice@example.com").
		WillReturnRows(aliceRow(time.Now()))

	got, err := repo.FindByEmail(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if got.ID != aliceID || got.Role != models.RoleAdmin || got.PasswordHash != "$2a$10$hash" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+WHERE\s+email`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "ghost@example.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByEmail_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+WHERE\s+email`).
		WithArgs("alice@example.com").
		WillReturnError(errors.New("db err"))

	_, err := repo.FindByEmail(context.Background(), "alice@example.com")
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
}

func TestFindByID_InvalidUUID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestFindByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s*$`
	mock.ExpectQuery(q).WithArgs(aliceID).WillReturnRows(aliceRow(time.Now()))

	got, err := repo.FindByID(context.Background(), aliceID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got.Email != "alice@example.com" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestFindByIDForUpdate_LocksRow(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE\s*$`
	mock.ExpectQuery(q).WithArgs(aliceID).WillReturnRows(aliceRow(time.Now()))

	if _, err := repo.FindByIDForUpdate(context.Background(), aliceID); err != nil {
		t.Fatalf("FindByIDForUpdate error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestList_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow(aliceID, "Alice", "alice@example.com", "h1", "admin", "", "", ts, "active", "en", ts).
		AddRow(bobID, "Bob", "bob@example.com", "h2", "user", "", "", ts, "pending", "fr", ts)

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+ORDER\s+BY\s+name`).WillReturnRows(rows)

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(got) != 2 || got[1].ID != bobID || got[1].PreferredLanguage != "fr" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestList_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users`).WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestList_RowError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Now()
	rows := sqlmock.NewRows(columns).
		AddRow(aliceID, "Alice", "alice@example.com", "h1", "admin", "", "", ts, "active", "en", ts).
		RowError(0, errors.New("row broken"))
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users`).WillReturnRows(rows)

	_, err := repo.List(context.Background())
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
}

func TestUpdatePasswordHash_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+password_hash\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s*$`
	mock.ExpectExec(q).WithArgs("newhash", aliceID).WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdatePasswordHash(context.Background(), aliceID, "newhash"); err != nil {
		t.Fatalf("UpdatePasswordHash error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdatePasswordHash_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+password_hash`).
		WithArgs("newhash", bobID).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePasswordHash(context.Background(), bobID, "newhash")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestUpdatePasswordHash_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET\s+password_hash`).
		WillReturnError(errors.New("conn reset"))

	err := repo.UpdatePasswordHash(context.Background(), aliceID, "newhash")
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
}

func TestUpdateProfile_SetsOnlyGivenFields(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	name, phone := "Alice B", "+371 2000000"
	q := `(?s)^UPDATE\s+users\s+SET\s+name\s*=\s*\$1,\s*phone\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3\s+RETURNING\s+id,.*$`
	mock.ExpectQuery(q).
		WithArgs(name, phone, aliceID).
		WillReturnRows(aliceRow(time.Now()))

	_, err := repo.UpdateProfile(context.Background(), aliceID, models.ProfileUpdate{Name: &name, Phone: &phone})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateProfile_EmptyReadsCurrent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+WHERE\s+id`).
		WithArgs(aliceID).
		WillReturnRows(aliceRow(time.Now()))

	got, err := repo.UpdateProfile(context.Background(), aliceID, models.ProfileUpdate{})
	if err != nil {
		t.Fatalf("UpdateProfile error: %v", err)
	}
	if got.ID != aliceID {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestUpdateProfile_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	name := "Nobody"
	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET\s+name`).
		WithArgs(name, bobID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateProfile(context.Background(), bobID, models.ProfileUpdate{Name: &name})
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
