package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/uptrace/bun/driver/pgdriver"
)

//go:embed migrations/*.sql
var migrations embed.FS

const defaultCredentials = "postgres:postgres"

// NewPostgres connects to url, or to a local database at host when url is
// empty, and applies pending migrations.
func NewPostgres(url, host string) (*sql.DB, error) {
	dsn := url
	if dsn == "" {
		dsn = fmt.Sprintf("postgres://%s@%s/postgres?sslmode=disable", defaultCredentials, host)
	}

	db := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging db: %w", err)
	}

	n, err := Migrate(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Info("applied migrations", "count", n)

	return db, nil
}

// Migrate applies all pending up migrations.
func Migrate(db *sql.DB) (int, error) {
	src := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrations,
		Root:       "migrations",
	}

	n, err := migrate.Exec(db, "postgres", src, migrate.Up)
	if err != nil {
		return 0, fmt.Errorf("applying migrations: %w", err)
	}
	return n, nil
}
