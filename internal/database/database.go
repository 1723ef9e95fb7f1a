package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite3 driver

	"asset-ingest/internal/database/migrations"
	"asset-ingest/internal/logging"
	"asset-ingest/internal/metrics"
)

// Default timeout for single-statement reads
const defaultTimeout = 5 * time.Second

// Database is the SQLite-backed catalog and history store.
type Database struct {
	db     *sql.DB
	dbPath string
	log    logging.Logger
}

// New opens the database file at dbPath and migrates it to the latest
// schema. The parent directory must already exist and be writable.
func New(ctx context.Context, dbPath string, log logging.Logger) (*Database, error) {
	log = log.With("component", "database")
	log.Info("Database path: %s", dbPath)

	if err := diagnoseDatabasePermissions(dbPath, log); err != nil {
		log.Warn("Database permission diagnostics: %v", err)
	}

	// WAL lets readers proceed during the bulk replace transactions;
	// busy_timeout absorbs the occasional writer overlap.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_foreign_keys=off", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after ping failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("failed to close database after migration failure: %v", closeErr)
		}
		return nil, fmt.Errorf("failed to initialize database schema: %w", err)
	}

	// SQLite serializes writers anyway; one connection keeps transactions
	// from tripping over each other with SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(time.Hour)

	log.Info("Database initialized successfully at %s", dbPath)
	return &Database{db: db, dbPath: dbPath, log: log}, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *Database) Path() string {
	return d.dbPath
}

// Ping checks that the database is reachable.
func (d *Database) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return d.db.PingContext(ctx)
}

// withTx runs fn in a transaction, committing on success and rolling back
// on error. The outcome is recorded under operation in the catalog write
// metrics.
func (d *Database) withTx(ctx context.Context, operation string, fn func(tx *sql.Tx) error) (err error) {
	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.CatalogWritesTotal.WithLabelValues(operation, status).Inc()
		metrics.CatalogWriteDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin %s: %w", operation, err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback also failed: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", operation, err)
	}
	return nil
}

// diagnoseDatabasePermissions logs problems that would otherwise surface as
// opaque "readonly database" errors on the first write.
func diagnoseDatabasePermissions(dbPath string, log logging.Logger) error {
	dir := filepath.Dir(dbPath)

	dirInfo, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("cannot stat database directory: %w", err)
	}
	log.Debug("Database directory: %s (mode: %v)", dir, dirInfo.Mode())

	testFile := filepath.Join(dir, ".perm-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o600); err != nil {
		return fmt.Errorf("database directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	for _, path := range []string{dbPath, dbPath + "-wal"} {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		log.Debug("%s exists (mode: %v, size: %d bytes)", path, info.Mode(), info.Size())
		if info.Mode().Perm()&0o200 == 0 {
			log.Warn("%s is read-only (mode: %v), writes will fail", path, info.Mode())
		}
	}
	return nil
}
