package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jasonw-lab/collecter/internal/model"
)

// HistoryDB provides SQLite-based storage for download outcomes.
//
// One database file holds the history of every run; rows are keyed by
// destination filename, so the latest record per image is an UPSERT and
// the full history stays queryable by timestamp.
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

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// read performance while a run is writing.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB in the specified directory.
// If CreateIfNotExists is false and the database doesn't exist, an error
// is returned; the history command uses this to avoid creating an empty
// database just to report that there is no history.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "collecter.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating
	// new files, mode=rwc allows creation.
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

	// SQLite supports one writer; a single connection avoids lock errors.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close() //nolint:errcheck // Best effort cleanup
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close() //nolint:errcheck // Best effort cleanup
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
	-- Download records store the latest outcome per destination file
	CREATE TABLE IF NOT EXISTS downloads (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		image_file TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		source_url TEXT,
		content_hash TEXT,
		detected_format TEXT,
		normalized INTEGER DEFAULT 0,
		status TEXT NOT NULL,
		error TEXT,
		camera_make TEXT,
		camera_model TEXT,
		software TEXT,
		taken_at TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_downloads_status ON downloads(status);
	CREATE INDEX IF NOT EXISTS idx_downloads_created ON downloads(created_at);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// DownloadRecord is a stored download outcome.
type DownloadRecord struct {
	ID             int64
	ImageFile      string
	Title          string
	SourceURL      string
	ContentHash    string
	DetectedFormat string
	Normalized     bool
	Status         model.RowStatus
	Error          string
	Meta           model.ImageMeta
	CreatedAt      time.Time
}

// RecordResult upserts the outcome of one processed row.
// Skipped rows are not recorded: they carry no new information over the
// record that made them skippable in the first place.
func (hdb *HistoryDB) RecordResult(ctx context.Context, result *model.RowResult) error {
	if result.Status == model.StatusSkipped || result.Status == model.StatusPending {
		return nil
	}

	query := `
	INSERT INTO downloads (image_file, title, source_url, content_hash, detected_format,
		normalized, status, error, camera_make, camera_model, software, taken_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(image_file) DO UPDATE SET
		title = excluded.title,
		source_url = excluded.source_url,
		content_hash = excluded.content_hash,
		detected_format = excluded.detected_format,
		normalized = excluded.normalized,
		status = excluded.status,
		error = excluded.error,
		camera_make = excluded.camera_make,
		camera_model = excluded.camera_model,
		software = excluded.software,
		taken_at = excluded.taken_at,
		created_at = CURRENT_TIMESTAMP
	`

	_, err := hdb.db.ExecContext(ctx, query,
		result.Row.ImageFile,
		result.Row.Title,
		result.SourceURL,
		result.ContentHash,
		result.DetectedFormat,
		result.Normalized,
		result.Status.String(),
		result.Error,
		result.Meta.CameraMake,
		result.Meta.CameraModel,
		result.Meta.Software,
		result.Meta.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}

	return nil
}

// GetByImageFile retrieves the latest record for a destination filename.
// Returns nil without error when no record exists.
func (hdb *HistoryDB) GetByImageFile(ctx context.Context, imageFile string) (*DownloadRecord, error) {
	query := selectColumns + ` WHERE image_file = ?`

	rec, err := hdb.scanOne(hdb.db.QueryRowContext(ctx, query, imageFile))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get download record: %w", err)
	}
	return rec, nil
}

// ListRecent returns up to limit records, most recent first.
// A non-positive limit returns everything.
func (hdb *HistoryDB) ListRecent(ctx context.Context, limit int) ([]DownloadRecord, error) {
	query := selectColumns + ` ORDER BY created_at DESC, id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list downloads: %w", err)
	}
	defer rows.Close()

	var results []DownloadRecord
	for rows.Next() {
		rec, err := hdb.scanOne(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan download record: %w", err)
		}
		results = append(results, *rec)
	}

	return results, rows.Err()
}

// selectColumns is the shared column list for download queries.
const selectColumns = `
	SELECT id, image_file, title, source_url, content_hash, detected_format,
		normalized, status, error, camera_make, camera_model, software, taken_at, created_at
	FROM downloads`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanOne scans a single download record.
func (hdb *HistoryDB) scanOne(row rowScanner) (*DownloadRecord, error) {
	var rec DownloadRecord
	var status, timestamp string

	err := row.Scan(
		&rec.ID,
		&rec.ImageFile,
		&rec.Title,
		&rec.SourceURL,
		&rec.ContentHash,
		&rec.DetectedFormat,
		&rec.Normalized,
		&status,
		&rec.Error,
		&rec.Meta.CameraMake,
		&rec.Meta.CameraModel,
		&rec.Meta.Software,
		&rec.Meta.TakenAt,
		&timestamp,
	)
	if err != nil {
		return nil, err
	}

	rec.Status = model.ParseRowStatus(status)
	rec.CreatedAt = parseTimestamp(timestamp)
	return &rec, nil
}

// timestampFormats contains the timestamp formats SQLite may return.
// More specific formats come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	time.RFC3339,              // Full RFC3339 format
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending
// on configuration. Returns zero time if no format matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
