package revocations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authgate/internal/common"
	"github.com/dmitrijs2005/authgate/internal/dbx"
	"github.com/dmitrijs2005/authgate/internal/server/models"
	"github.com/sethvargo/go-retry"
)

const readRetryBackoff = 100 * time.Millisecond

// PostgresRepository implements Repository over dbx.DBTX. The token_id
// primary key is what makes concurrent revocations of the same id resolve
// to exactly one inserted row.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Revoke inserts the entry, ignoring conflicts. alreadyRevoked is true when
// another caller got there first. Never retried.
func (r *PostgresRepository) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) (bool, error) {
	query := `
		INSERT INTO revocations (token_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, tokenID, expiresAt)
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return affected == 0, nil
}

// RevokeAll revokes every entry with a single multi-row insert, so either
// all identifiers are on the list or none are.
func (r *PostgresRepository) RevokeAll(ctx context.Context, entries []models.RevocationEntry) error {
	if len(entries) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`INSERT INTO revocations (token_id, expires_at) VALUES `)
	args := make([]any, 0, len(entries)*2)
	for i, e := range entries {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "($%d, $%d)", i*2+1, i*2+2)
		args = append(args, e.TokenID, e.ExpiresAt)
	}
	sb.WriteString(` ON CONFLICT (token_id) DO NOTHING`)

	if _, err := r.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return nil
}

// IsRevoked looks up tokenID, retrying once with backoff on transient
// storage errors.
func (r *PostgresRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	query := `
		SELECT EXISTS (SELECT 1 FROM revocations WHERE token_id = $1)
	`
	var revoked bool

	b := retry.WithMaxRetries(1, retry.NewConstant(readRetryBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		if err := r.db.QueryRowContext(ctx, query, tokenID).Scan(&revoked); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return revoked, nil
}

// PurgeExpired deletes entries past their expiry. A lookup racing the purge
// may see either state; both are fine since the token fails expiry checks
// anyway.
func (r *PostgresRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	query := `
		DELETE FROM revocations
		WHERE expires_at <= $1
	`
	res, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrStorage, err)
	}
	return count, nil
}
