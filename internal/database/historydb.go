package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/hostprint/hostprint/internal/model"
)

// HistoryDB provides SQLite-based storage for fingerprint runs.
// It manages connection pooling and provides methods for saving and
// querying historical results.
//
// Design decision: We use a single database file for all hosts rather
// than a file per host. A watch agent that fingerprints several machines
// (e.g. over SSH sessions writing to a shared data dir) can then compare
// across hosts with plain SQL, and backup/restore stays a single-file
// operation.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "hostprint.db")

	// Check if we should create the database or require it to exist
	if !opts.CreateIfNotExists {
		// Check if database file exists
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Build connection string
	// We use modernc.org/sqlite which uses a different connection string format.
	// When CreateIfNotExists is false, we use mode=rw to prevent creating new files.
	// When CreateIfNotExists is true, we use mode=rwc to allow creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	// SQLite doesn't benefit from multiple connections for writes,
	// but multiple readers can improve performance
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	// Enable WAL mode if requested
	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	// Create tables
	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Runs store one complete fingerprint generation each
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		host TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		combined_hash TEXT NOT NULL,
		digest TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_host ON runs(host);
	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_digest ON runs(digest);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// Run represents a stored fingerprint run.
type Run struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// Host is the hostname the fingerprint was generated on.
	Host string

	// CreatedAt is when the run was saved.
	CreatedAt time.Time

	// CombinedHash is the folded 32-bit composite hash in hex.
	CombinedHash string

	// Digest is the full-strength content digest of the stable features.
	Digest string

	// Result is the complete per-engine result. It is nil for metadata
	// queries that skip loading the JSON payload.
	Result *model.CombinedResult
}

// SaveRun saves a fingerprint run for the given host and returns its ID.
func (hdb *HistoryDB) SaveRun(ctx context.Context, host string, result *model.CombinedResult) (int64, error) {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize result: %w", err)
	}

	query := `
	INSERT INTO runs (host, combined_hash, digest, result_json)
	VALUES (?, ?, ?, ?)
	`

	res, err := hdb.db.ExecContext(ctx, query,
		host,
		result.CombinedHash,
		result.Digest,
		string(resultJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	return res.LastInsertId()
}

// LatestRun retrieves the most recent run for a host.
// It returns nil without error when the host has no saved runs.
func (hdb *HistoryDB) LatestRun(ctx context.Context, host string) (*Run, error) {
	query := `
	SELECT id, host, created_at, combined_hash, digest, result_json
	FROM runs
	WHERE host = ?
	ORDER BY created_at DESC, id DESC
	LIMIT 1
	`

	return hdb.scanRun(hdb.db.QueryRowContext(ctx, query, host))
}

// GetRunByID retrieves a run by its database ID.
// It returns nil without error when no run has that ID.
func (hdb *HistoryDB) GetRunByID(ctx context.Context, id int64) (*Run, error) {
	query := `
	SELECT id, host, created_at, combined_hash, digest, result_json
	FROM runs
	WHERE id = ?
	`

	return hdb.scanRun(hdb.db.QueryRowContext(ctx, query, id))
}

// scanRun scans a single run row including its JSON payload.
func (hdb *HistoryDB) scanRun(row *sql.Row) (*Run, error) {
	var run Run
	var createdAt string
	var resultJSON string

	err := row.Scan(
		&run.ID,
		&run.Host,
		&createdAt,
		&run.CombinedHash,
		&run.Digest,
		&resultJSON,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.CreatedAt = parseTimestamp(createdAt)

	var result model.CombinedResult
	if err := json.Unmarshal([]byte(resultJSON), &result); err != nil {
		return nil, fmt.Errorf("failed to parse result: %w", err)
	}
	run.Result = &result

	return &run, nil
}

// ListRuns retrieves run metadata for a host, newest first.
// The Result field is left nil; use GetRunByID to load the full payload.
func (hdb *HistoryDB) ListRuns(ctx context.Context, host string) ([]Run, error) {
	query := `
	SELECT id, host, created_at, combined_hash, digest
	FROM runs
	WHERE host = ?
	ORDER BY created_at DESC, id DESC
	`

	rows, err := hdb.db.QueryContext(ctx, query, host)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []Run
	for rows.Next() {
		var run Run
		var createdAt string

		if err := rows.Scan(&run.ID, &run.Host, &createdAt, &run.CombinedHash, &run.Digest); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.CreatedAt = parseTimestamp(createdAt)
		results = append(results, run)
	}

	return results, rows.Err()
}

// ListHosts returns all hosts with at least one saved run.
func (hdb *HistoryDB) ListHosts(ctx context.Context) ([]string, error) {
	query := `
	SELECT DISTINCT host FROM runs
	ORDER BY host
	`

	rows, err := hdb.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list hosts: %w", err)
	}
	defer rows.Close()

	var hosts []string
	for rows.Next() {
		var host string
		if err := rows.Scan(&host); err != nil {
			return nil, fmt.Errorf("failed to scan host: %w", err)
		}
		hosts = append(hosts, host)
	}

	return hosts, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	// Return zero time if no format matches
	// This is a fallback to avoid breaking functionality for edge cases
	return time.Time{}
}
