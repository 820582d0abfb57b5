package repomanager

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophbooks/internal/filex"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
)

const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// ping retry policy; tests shorten it.
var (
	pingBaseDelay  = 200 * time.Millisecond
	pingMaxRetries = uint64(5)
)

// Driver picks the database/sql driver for dsn: postgres URLs go to pgx,
// anything else is treated as a SQLite path or URI.
func Driver(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return DriverPostgres
	}
	return DriverSQLite
}

// Open connects to dsn, waits for the database to answer a ping and returns
// the connection with the repository manager for its dialect.
func Open(ctx context.Context, dsn string) (*sql.DB, RepositoryManager, error) {
	driver := Driver(dsn)

	var manager RepositoryManager
	switch driver {
	case DriverPostgres:
		manager = NewPostgresRepositoryManager()
	default:
		if isSQLiteFile(dsn) {
			if _, err := filex.EnsureParentDir(sqlitePath(dsn)); err != nil {
				return nil, nil, oops.Code("DB_OPEN_FAILED").With("driver", driver).Wrap(err)
			}
		}
		manager = NewSQLiteRepositoryManager()
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, oops.Code("DB_OPEN_FAILED").With("driver", driver).Wrap(err)
	}

	if driver == DriverSQLite {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	backoff := retry.WithMaxRetries(pingMaxRetries, retry.NewExponential(pingBaseDelay))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := db.PingContext(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, nil, oops.Code("DB_OPEN_FAILED").With("driver", driver).Wrap(err)
	}

	return db, manager, nil
}

func isSQLiteFile(dsn string) bool {
	return dsn != ":memory:" && !strings.Contains(dsn, "mode=memory")
}

func sqlitePath(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	return p
}
