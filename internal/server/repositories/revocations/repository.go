// Package revocations declares the persistence contract for the token
// revocation list: token identifiers held only until their natural expiry.
package revocations

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// Repository tracks invalidated token (and session) identifiers.
type Repository interface {
	// Revoke marks tokenID invalid until expiresAt. Idempotent: revoking an
	// already-revoked id is a no-op success, reported through alreadyRevoked
	// so callers enforcing single-use semantics can detect a lost race.
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) (alreadyRevoked bool, err error)

	// RevokeAll marks every entry invalid in one atomic statement.
	RevokeAll(ctx context.Context, entries []models.RevocationEntry) error

	// IsRevoked reports whether tokenID is on the revocation list.
	IsRevoked(ctx context.Context, tokenID string) (bool, error)

	// PurgeExpired removes entries whose expiry has passed and returns the
	// count. Safe to run concurrently with lookups.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
