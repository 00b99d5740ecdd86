package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// DB couples the connection pool with the goqu dialect matching its driver.
type DB struct {
	*goqu.Database
	sql    *sql.DB
	driver string
}

func (d *DB) Driver() string {
	return d.driver
}

func (d *DB) Close() error {
	return d.sql.Close()
}

// Init opens the store and applies the schema. For sqlite, dsn is a file path; for postgres,
// a connection URL understood by pgx.
func Init(ctx context.Context, driver, dsn string) (*DB, error) {
	var (
		sqlDriver string
		dialect   string
	)
	switch driver {
	case DriverSQLite, "":
		driver = DriverSQLite
		sqlDriver, dialect = "sqlite", "sqlite3"
		dsn = formatSQLitePath(dsn)
	case DriverPostgres:
		sqlDriver, dialect = "pgx", "postgres"
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	instance, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// sqlite allows a single writer; serialising on one connection avoids SQLITE_BUSY storms
		// from the click workers.
		instance.SetMaxOpenConns(1)
	}

	if err := instance.PingContext(ctx); err != nil {
		instance.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Debug().Str("driver", driver).Msg("database connection successful")

	if err := migrate(ctx, instance, driver); err != nil {
		instance.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info().Str("driver", driver).Msg("migrations completed successfully")

	return &DB{
		Database: goqu.New(dialect, instance),
		sql:      instance,
		driver:   driver,
	}, nil
}

func formatSQLitePath(path string) string {
	if path == "" {
		path = "linkzip.db"
	}
	path = strings.TrimPrefix(path, "file:")

	// See: https://pkg.go.dev/modernc.org/sqlite#pkg-overview
	params := url.Values{}
	params.Set("mode", "rwc")
	params.Set("_time_format", "sqlite")
	params.Set("_pragma", "foreign_keys(1)")
	params.Add("_pragma", "journal_mode(WAL)")
	params.Add("_pragma", "synchronous(NORMAL)")
	params.Add("_pragma", "busy_timeout(5000)")

	return "file:" + path + "?" + params.Encode()
}

func migrate(ctx context.Context, db *sql.DB, driver string) error {
	schema := sqliteSchema
	if driver == DriverPostgres {
		schema = postgresSchema
	}

	_, err := db.ExecContext(ctx, schema)
	return err
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		owner_id TEXT,
		original_url TEXT NOT NULL,
		short_code TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		click_count INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clicks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id INTEGER NOT NULL,
		clicked_at TEXT NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		device_type TEXT NOT NULL,
		referrer TEXT NOT NULL,
		ip_address TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT '',
		FOREIGN KEY(link_id) REFERENCES links(id)
	);

	CREATE INDEX IF NOT EXISTS idx_links_owner_id ON links(owner_id);
	CREATE INDEX IF NOT EXISTS idx_clicks_link_id_clicked_at ON clicks(link_id, clicked_at);
	`

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS links (
		id BIGSERIAL PRIMARY KEY,
		owner_id TEXT,
		original_url TEXT NOT NULL,
		short_code TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		click_count BIGINT NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS clicks (
		id BIGSERIAL PRIMARY KEY,
		link_id BIGINT NOT NULL REFERENCES links(id),
		clicked_at TEXT NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		device_type TEXT NOT NULL,
		referrer TEXT NOT NULL,
		ip_address TEXT NOT NULL,
		country TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_links_owner_id ON links(owner_id);
	CREATE INDEX IF NOT EXISTS idx_clicks_link_id_clicked_at ON clicks(link_id, clicked_at);
	`
