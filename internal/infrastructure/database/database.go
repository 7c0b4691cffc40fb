package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o600
	pingTimeout     = 5 * time.Second
)

// DB is the bridge's SQLite file: the HomeKit pairing store and the
// accessory cache.
type DB struct {
	*sql.DB
	path string
}

// Config mirrors the database section of config.yaml.
type Config struct {
	Path    string
	WALMode bool
	// BusyTimeout is how long to wait on a locked database, in seconds.
	BusyTimeout int
}

// DSN renders cfg as a go-sqlite3 connection string. Foreign keys are
// always enforced; WAL mode relaxes fsync to NORMAL.
func (cfg Config) DSN() string {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.Itoa(cfg.BusyTimeout*1000))
	q.Set("_foreign_keys", "on")
	if cfg.WALMode {
		q.Set("_journal_mode", "WAL")
		q.Set("_synchronous", "NORMAL")
	}
	return "file:" + cfg.Path + "?" + q.Encode()
}

// Open makes sure the parent directory exists, opens the file and pings
// it within ctx.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	if cfg.Path == "" {
		return nil, ErrEmptyPath
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("database dir: %w", err)
	}

	conn, err := sql.Open("sqlite3", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("database open %s: %w", cfg.Path, err)
	}
	// SQLite has a single writer; one pooled connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if err := ping(ctx, conn); err != nil {
		conn.Close() //nolint:errcheck // already failing
		return nil, err
	}
	_ = os.Chmod(cfg.Path, filePermissions) //nolint:errcheck // absent until first write

	return &DB{DB: conn, path: cfg.Path}, nil
}

func ping(ctx context.Context, conn *sql.DB) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

// Close is a no-op on a nil DB.
func (db *DB) Close() error {
	if db == nil || db.DB == nil {
		return nil
	}
	return db.DB.Close()
}

// Path is the file the DB was opened from.
func (db *DB) Path() string { return db.path }

// HealthCheck round-trips a trivial query.
func (db *DB) HealthCheck(ctx context.Context) error {
	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database health: %w", err)
	}
	return nil
}
