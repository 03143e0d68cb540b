// Package users declares the persistence contract for identity records.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/authgate/internal/server/models"
)

// Repository defines operations over stored users. Implementations must
// rely on the storage layer's uniqueness constraint for Create (no
// check-then-act) and must normalize nothing: callers pass logins already
// lower-cased.
type Repository interface {
	// Create inserts a new user. A duplicate login yields common.ErrConflict.
	Create(ctx context.Context, login string, passwordHash []byte) (*models.User, error)

	// GetByLogin returns the user with the given normalized login, or
	// common.ErrNotFound.
	GetByLogin(ctx context.Context, login string) (*models.User, error)

	// GetByID returns the user with the given subject id, or common.ErrNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// UpdateLastLogin records the time of the latest successful login.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// Disable marks the account disabled. Users are never deleted.
	Disable(ctx context.Context, id string) error
}
