package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"kenobase/internal"
	"kenobase/internal/errors"
	"kenobase/internal/migration"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	// sqlx only knows the mattn driver name for sqlite
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open connects to the graph store and runs the schema migrations
func Open(ctx context.Context, driver, dsn string, logger *internal.Logger) (*sqlx.DB, error) {
	if dsn == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, errors.ConfigInvalid(fmt.Sprintf("unsupported database driver %q", driver))
	}

	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.WithCode(errors.CodeDatabaseError, errors.Wrap(err, "failed to connect to database"))
	}
	if driver == DriverSQLite {
		// one writer; also keeps ":memory:" databases alive across queries
		db.SetMaxOpenConns(1)
	}

	if err := migration.NewRunner(logger).Run(ctx, db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database migration failed")
	}
	return db, nil
}
