// Package repomanager wires up the database connection pool and hands out
// the repositories built on top of it.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authgate/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/authgate/internal/server/repositories/users"
)

type Manager interface {
	RunMigrations(ctx context.Context) error
	Conn() *sql.DB
	Users() users.Repository
	Revocations() revocations.Repository
	Close() error
}
