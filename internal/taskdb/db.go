// Package taskdb persists tasks for the REST API server.
package taskdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Supported drivers.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

// MaxTextLength is the longest task text accepted.
const MaxTextLength = 500

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// ErrNotFound is returned when a task id does not exist.
var ErrNotFound = errors.New("task not found")

// DB is the task repository.
type DB struct {
	db     *sql.DB
	driver string
	now    func() time.Time
}

// Option configures a DB.
type Option func(*DB)

// WithClock sets the time source for created/updated timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *DB) { d.now = now }
}

// Open connects to dsn with driver and migrates the schema.
// For sqlite3 the dsn is a file path; its directory is created.
func Open(driver, dsn string, opts ...Option) (*DB, error) {
	switch driver {
	case "", DriverSQLite:
		driver = DriverSQLite
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
	case DriverMySQL:
	default:
		return nil, fmt.Errorf("unknown database driver: %s", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	d := &DB{db: db, driver: driver, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	if err := d.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return d, nil
}

func (d *DB) Close() error { return d.db.Close() }

// Ping checks the connection.
func (d *DB) Ping(ctx context.Context) error { return d.db.PingContext(ctx) }

func (d *DB) migrate(ctx context.Context) error {
	stmts := sqliteSchema
	if d.driver == DriverMySQL {
		stmts = mysqlSchema
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			if d.driver == DriverMySQL && isDuplicateIndex(err) {
				continue
			}
			return err
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		priority TEXT NOT NULL DEFAULT 'medium',
		due_date TEXT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_created_at ON tasks(created_at)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		text VARCHAR(500) NOT NULL,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		priority VARCHAR(10) NOT NULL DEFAULT 'medium',
		due_date VARCHAR(10) NULL,
		created_at VARCHAR(27) NOT NULL,
		updated_at VARCHAR(27) NOT NULL
	)`,
	// MySQL lacks IF NOT EXISTS for CREATE INDEX; duplicates are ignored.
	`CREATE INDEX idx_tasks_created_at ON tasks(created_at)`,
}

func isDuplicateIndex(err error) bool {
	e := err.Error()
	return strings.Contains(e, "Duplicate key name") || strings.Contains(e, "1061")
}
