package revocations

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const (
	revokeQuery = `(?s)^\s*INSERT\s+INTO\s+revocations\s*\(token_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2\)\s*ON\s+CONFLICT\s*\(token_id\)\s*DO\s+NOTHING\s*$`
	existsQuery = `(?s)^\s*SELECT\s+EXISTS\s*\(SELECT\s+1\s+FROM\s+revocations\s+WHERE\s+token_id\s*=\s*\$1\)\s*$`
	purgeQuery  = `(?s)^\s*DELETE\s+FROM\s+revocations\s+WHERE\s+expires_at\s*<=\s*\$1\s*$`
)

func TestRevoke_Inserted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	mock.ExpectExec(revokeQuery).
		WithArgs("jti-1", exp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	already, err := repo.Revoke(context.Background(), "jti-1", exp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if already {
		t.Fatalf("fresh insert must not report alreadyRevoked")
	}
}

func TestRevoke_Conflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	mock.ExpectExec(revokeQuery).
		WithArgs("jti-1", exp).
		WillReturnResult(sqlmock.NewResult(0, 0))

	already, err := repo.Revoke(context.Background(), "jti-1", exp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !already {
		t.Fatalf("zero rows affected must report alreadyRevoked")
	}
}

func TestRevoke_DBErrorNotRetried(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(revokeQuery).
		WillReturnError(errors.New("db down"))

	_, err := repo.Revoke(context.Background(), "jti-1", time.Now())
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
	// exactly one attempt
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRevokeAll_SingleStatement(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	exp := time.Now().Add(time.Hour)
	entries := []models.RevocationEntry{
		{TokenID: "jti-1", ExpiresAt: exp},
		{TokenID: "sid-1", ExpiresAt: exp},
	}

	q := `(?s)^\s*INSERT\s+INTO\s+revocations\s*\(token_id,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2\),\s*\(\$3,\s*\$4\)\s*ON\s+CONFLICT\s*\(token_id\)\s*DO\s+NOTHING\s*$`
	mock.ExpectExec(q).
		WithArgs("jti-1", exp, "sid-1", exp).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.RevokeAll(context.Background(), entries); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRevokeAll_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	if err := repo.RevokeAll(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// no statement issued
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIsRevoked(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(existsQuery).
		WithArgs("jti-2").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	revoked, err := repo.IsRevoked(context.Background(), "jti-1")
	if err != nil || !revoked {
		t.Fatalf("expected revoked=true, got %v err=%v", revoked, err)
	}

	revoked, err = repo.IsRevoked(context.Background(), "jti-2")
	if err != nil || revoked {
		t.Fatalf("expected revoked=false, got %v err=%v", revoked, err)
	}
}

func TestIsRevoked_RetriesOnceOnTransientError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).
		WithArgs("jti-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectQuery(existsQuery).
		WithArgs("jti-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	revoked, err := repo.IsRevoked(context.Background(), "jti-1")
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if !revoked {
		t.Fatalf("expected revoked=true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIsRevoked_FailsAfterRetry(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(existsQuery).WithArgs("jti-1").WillReturnError(errors.New("down"))
	mock.ExpectQuery(existsQuery).WithArgs("jti-1").WillReturnError(errors.New("still down"))

	_, err := repo.IsRevoked(context.Background(), "jti-1")
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("expected ErrStorage after exhausted retry, got %v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectExec(purgeQuery).
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	count, err := repo.PurgeExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 purged, got %d", count)
	}
}
