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

	"github.com/mkosuda/pagefold/internal/model"
)

// RunDB provides SQLite-based storage for restructuring runs. Each run
// stores its full report, the path mapping it applied, and the broken
// links found by validation.
//
// Design decision: We use a single database file for all runs rather than
// one file per site. Runs for different sites share the history table and
// are filtered by site root, which keeps listing and comparison queries in
// one place.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB at the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned instead of creating an empty history.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, "pagefold.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
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

	// SQLite only supports one writer; a single pooled connection avoids
	// SQLITE_BUSY under concurrent use.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- Runs store a complete run report as JSON plus queryable summary columns
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_root TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		pages_mapped INTEGER DEFAULT 0,
		pages_moved INTEGER DEFAULT 0,
		references_rewritten INTEGER DEFAULT 0,
		broken_total INTEGER DEFAULT 0,
		report_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_site ON runs(site_root);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp);

	-- Path mappings record which files a run moved where
	CREATE TABLE IF NOT EXISTS mappings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		old_path TEXT NOT NULL,
		new_path TEXT NOT NULL,
		UNIQUE(run_id, old_path)
	);

	CREATE INDEX IF NOT EXISTS idx_mappings_run ON mappings(run_id);

	-- Broken links found by validation, capped the same way the report is
	CREATE TABLE IF NOT EXISTS broken_links (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		source TEXT NOT NULL,
		link TEXT NOT NULL,
		target TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_broken_run ON broken_links(run_id);
	CREATE INDEX IF NOT EXISTS idx_broken_target ON broken_links(target);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveRun stores a completed run with its mapping and broken links.
// Everything is written in one transaction so the history never contains a
// run without its mapping rows.
func (rdb *RunDB) SaveRun(ctx context.Context, report *model.RunReport, mapping *model.PathMapping) (int64, error) {
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	result, err := tx.ExecContext(ctx, `
	INSERT INTO runs (site_root, pages_mapped, pages_moved, references_rewritten, broken_total, report_json)
	VALUES (?, ?, ?, ?, ?, ?)
	`,
		report.SiteRoot,
		report.PagesMapped,
		len(report.Restructure.Moved),
		report.Rewrite.ReferencesRewritten,
		report.Validation.BrokenTotal,
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	if mapping != nil {
		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO mappings (run_id, old_path, new_path) VALUES (?, ?, ?)
		`)
		if err != nil {
			return 0, fmt.Errorf("failed to prepare mapping insert: %w", err)
		}
		defer stmt.Close()

		for _, pair := range mapping.Pairs() {
			if _, err := stmt.ExecContext(ctx, runID, pair.Old, pair.New); err != nil {
				return 0, fmt.Errorf("failed to insert mapping entry: %w", err)
			}
		}
	}

	for _, rec := range report.Validation.Broken {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO broken_links (run_id, source, link, target) VALUES (?, ?, ?, ?)
		`, runID, rec.Source, rec.Link, rec.Target)
		if err != nil {
			return 0, fmt.Errorf("failed to insert broken link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// GetLatestRun retrieves the most recent run report for a site root.
// It returns nil without error when the site has no history.
func (rdb *RunDB) GetLatestRun(ctx context.Context, siteRoot string) (*model.RunReport, error) {
	query := `
	SELECT report_json FROM runs
	WHERE site_root = ?
	ORDER BY timestamp DESC
	LIMIT 1
	`

	var reportJSON string
	err := rdb.db.QueryRowContext(ctx, query, siteRoot).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

// GetMapping retrieves the path mapping stored for a run.
func (rdb *RunDB) GetMapping(ctx context.Context, runID int64) (*model.PathMapping, error) {
	query := `
	SELECT old_path, new_path FROM mappings
	WHERE run_id = ?
	ORDER BY old_path
	`

	rows, err := rdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mapping: %w", err)
	}
	defer rows.Close()

	mapping := model.NewPathMapping()
	for rows.Next() {
		var old, neu string
		if err := rows.Scan(&old, &neu); err != nil {
			return nil, fmt.Errorf("failed to scan mapping entry: %w", err)
		}
		if err := mapping.Add(old, neu); err != nil {
			return nil, fmt.Errorf("failed to restore mapping entry: %w", err)
		}
	}

	return mapping, rows.Err()
}

// RunMetadata contains summary information about a stored run.
// This is used for displaying run history without loading full reports.
type RunMetadata struct {
	// ID is the unique identifier of the run in the database.
	ID int64

	// SiteRoot is the site tree the run transformed.
	SiteRoot string

	// Timestamp is when the run was stored.
	Timestamp time.Time

	// PagesMapped is the number of entries in the run's path mapping.
	PagesMapped int

	// PagesMoved is the number of files the run actually relocated.
	PagesMoved int

	// ReferencesRewritten is the number of references the run changed.
	ReferencesRewritten int

	// BrokenTotal is the number of broken links validation found.
	BrokenTotal int
}

// ListRuns retrieves run metadata, newest first. An empty siteRoot lists
// runs for every site.
func (rdb *RunDB) ListRuns(ctx context.Context, siteRoot string) ([]RunMetadata, error) {
	query := `
	SELECT id, site_root, timestamp, pages_mapped, pages_moved, references_rewritten, broken_total
	FROM runs
	WHERE 1=1
	`
	args := make([]any, 0)

	if siteRoot != "" {
		query += " AND site_root = ?"
		args = append(args, siteRoot)
	}

	query += " ORDER BY timestamp DESC"

	rows, err := rdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var timestamp string

		err := rows.Scan(
			&meta.ID,
			&meta.SiteRoot,
			&timestamp,
			&meta.PagesMapped,
			&meta.PagesMoved,
			&meta.ReferencesRewritten,
			&meta.BrokenTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run metadata: %w", err)
		}

		meta.Timestamp = parseTimestamp(timestamp)
		results = append(results, meta)
	}

	return results, rows.Err()
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

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending on
// configuration. If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
