package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sethvargo/go-retry"
)

const uniqueViolation = "23505"

// readRetryBackoff is the pause before the single retry of a failed read.
const readRetryBackoff = 100 * time.Millisecond

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the user and lets the unique index on lower(login) decide
// the winner between concurrent creates. Never retried: a duplicated write
// risks double effects.
func (r *PostgresRepository) Create(ctx context.Context, login string, passwordHash []byte) (*models.User, error) {
	query := `
		INSERT INTO users (login, password_hash)
		VALUES ($1, $2)
		RETURNING id, status, created_at
	`
	user := &models.User{Login: login, PasswordHash: passwordHash}
	err := r.db.QueryRowContext(ctx, query, login, passwordHash).
		Scan(&user.ID, &user.Status, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrConflict
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `
		SELECT id, login, password_hash, status, created_at, last_login_at
		FROM users
		WHERE login = $1
	`
	return r.getOne(ctx, query, login)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `
		SELECT id, login, password_hash, status, created_at, last_login_at
		FROM users
		WHERE id = $1
	`
	return r.getOne(ctx, query, id)
}

// getOne runs a single-row lookup, retrying once with backoff on transient
// storage errors. A miss (sql.ErrNoRows) is not retried.
func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user *models.User

	b := retry.WithMaxRetries(1, retry.NewConstant(readRetryBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		u := &models.User{}
		var lastLogin sql.NullTime
		err := r.db.QueryRowContext(ctx, query, arg).
			Scan(&u.ID, &u.Login, &u.PasswordHash, &u.Status, &u.CreatedAt, &lastLogin)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrNotFound
			}
			return retry.RetryableError(err)
		}
		if lastLogin.Valid {
			u.LastLoginAt = &lastLogin.Time
		}
		user = u
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE users SET last_login_at = $2
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id, at); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return nil
}

func (r *PostgresRepository) Disable(ctx context.Context, id string) error {
	query := `
		UPDATE users SET status = $2
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, models.StatusDisabled)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	if affected == 0 {
		return common.ErrNotFound
	}
	return nil
}
