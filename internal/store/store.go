package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 2 - phoneNumber primary key (oldest layout still supported)
// 3 - fullPhoneNumber primary key, national number, location, optional text columns
// 4 - photo column
const (
	CurrentSchemaVersion = 4
	minSchemaVersion     = 2
)

// Driver names accepted by WithDriver.
const (
	DriverMattn   = "sqlite3" // github.com/mattn/go-sqlite3 (cgo)
	DriverModernc = "sqlite"  // modernc.org/sqlite (pure Go)
)

var (
	// ErrUnsupportedSchema is returned when an existing caller_info table is
	// older than the oldest layout the ladder knows how to upgrade.
	ErrUnsupportedSchema = errors.New("unsupported schema version")
	// ErrSchemaTooNew is returned when the database was written by a newer
	// build than this one.
	ErrSchemaTooNew = errors.New("schema version is newer than supported")
	// ErrInvalidRecord is returned for records without a name or full number.
	ErrInvalidRecord = errors.New("invalid record: name and fullPhoneNumber are required")
)

// Store provides durable storage for caller records.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sqlx.DB
	mu sync.RWMutex
}

type options struct {
	driver string
}

// Option configures Open.
type Option func(*options)

// WithDriver selects the database/sql driver. The default is DriverMattn.
func WithDriver(name string) Option {
	return func(o *options) {
		o.driver = name
	}
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	o := options{driver: DriverMattn}
	for _, opt := range opts {
		opt(&o)
	}
	if o.driver != DriverMattn && o.driver != DriverModernc {
		return nil, fmt.Errorf("unknown sqlite driver %q", o.driver)
	}

	db, err := sqlx.Open(o.driver, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.applySchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sqlx.DB for direct queries.
// Use with caution - prefer using Store methods when available.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema brings caller_info up to CurrentSchemaVersion and makes sure
// the unversioned tables exist. A fresh database gets the current layout
// directly.
func (s *Store) applySchema(ctx context.Context) error {
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	exists, err := s.tableExists(ctx, "caller_info")
	if err != nil {
		return err
	}

	switch {
	case !exists:
		if version > CurrentSchemaVersion {
			return fmt.Errorf("%w: %d", ErrSchemaTooNew, version)
		}
		version = CurrentSchemaVersion
	case version > CurrentSchemaVersion:
		return fmt.Errorf("%w: %d", ErrSchemaTooNew, version)
	case version < minSchemaVersion:
		return fmt.Errorf("%w: %d", ErrUnsupportedSchema, version)
	default:
		if err := s.Migrate(ctx, version, CurrentSchemaVersion); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// SchemaVersion returns the on-disk PRAGMA user_version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

func (s *Store) tableExists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, fmt.Errorf("check table %s: %w", name, err)
	}
	return n > 0, nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
