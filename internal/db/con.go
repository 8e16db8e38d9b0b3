package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"net/url"
	"strings"

	"github.com/pressly/goose/v3"
	// SQLite driver.
	_ "modernc.org/sqlite"

	"github.com/fr0stylo/tokengate/internal/db/queries"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

var driver = "sqlite"

// DBTX is the query surface shared by *sql.DB, *sql.Tx and the instrumented wrapper.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Database wraps sqlc queries with the shared instrumented connection.
type Database struct {
	*queries.Queries
	db      *sql.DB
	conn    DBTX
	tracker *queryLatencyTracker
}

// New opens the SQLite database at the provided path and applies migrations.
func New(path string, openParams ...string) (*Database, error) {
	if path == "" {
		path = "data/tokengate"
	}
	db, err := sql.Open(driver, sqliteDSN(path, openParams...))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect(driver); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.Up(db, "migrations"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	tracker := newQueryLatencyTracker()
	conn := newInstrumentedDBTX(db, tracker)
	return &Database{Queries: queries.New(conn), db: db, conn: conn, tracker: tracker}, nil
}

func sqliteDSN(path string, openParams ...string) string {
	values := url.Values{}
	values.Add("_pragma", "foreign_keys(ON)")
	values.Add("_pragma", "journal_mode(WAL)")
	values.Add("_pragma", "synchronous(NORMAL)")
	values.Add("_pragma", "busy_timeout(5000)")
	values.Add("_pragma", "temp_store(MEMORY)")

	for _, param := range openParams {
		part := strings.TrimSpace(strings.TrimPrefix(param, "&"))
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		values.Add(strings.TrimSpace(key), strings.TrimSpace(value))
	}

	return fmt.Sprintf("file:%s.sqlite?%s", path, values.Encode())
}

// Conn returns the instrumented query surface.
func (c *Database) Conn() DBTX {
	return c.conn
}

// Ping verifies the handle is usable.
func (c *Database) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (c *Database) Close() error {
	return c.db.Close()
}
