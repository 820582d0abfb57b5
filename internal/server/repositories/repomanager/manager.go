// Package repomanager vends dialect-specific repositories and runs the
// matching schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophbooks/internal/dbx"
	"github.com/dmitrijs2005/gophbooks/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}
