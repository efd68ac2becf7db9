package revokedtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/onboarding/internal/common"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestRevoke_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	q := `(?s)^\s*INSERT\s+INTO\s+revoked_tokens\s*\(id,\s*user_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(id\)\s*DO\s+NOTHING\s*$`

	mock.ExpectExec(q).
		WithArgs("jti-1", "u1", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Revoke(context.Background(), "jti-1", "u1", exp); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRevoke_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT\s+INTO\s+revoked_tokens`).
		WillReturnError(errors.New("insert failed"))

	err := repo.Revoke(context.Background(), "jti-1", "u1", time.Now())
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
}

func TestIsRevoked(t *testing.T) {
	tests := []struct {
		name   string
		exists bool
	}{
		{"revoked", true},
		{"not revoked", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			q := `(?s)^SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+revoked_tokens\s+WHERE\s+id\s*=\s*\$1\)\s*$`
			mock.ExpectQuery(q).
				WithArgs("jti-1").
				WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			got, err := repo.IsRevoked(context.Background(), "jti-1")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.exists {
				t.Fatalf("IsRevoked = %v, want %v", got, tt.exists)
			}
		})
	}
}

func TestIsRevoked_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)SELECT\s+EXISTS`).
		WithArgs("jti-1").
		WillReturnError(errors.New("db down"))

	_, err := repo.IsRevoked(context.Background(), "jti-1")
	if !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+revoked_tokens\s+WHERE\s+expires_at\s*<\s*\$1\s*$`).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("purged %d, want 3", n)
	}
}

func TestPurgeExpired_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)DELETE\s+FROM\s+revoked_tokens`).
		WillReturnError(errors.New("boom"))

	if _, err := repo.PurgeExpired(context.Background(), time.Now()); !errors.Is(err, common.ErrStoreUnavailable) {
		t.Fatalf("want common.ErrStoreUnavailable, got %v", err)
	}
}
