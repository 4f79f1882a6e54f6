package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/flightdash/internal/history"
	"github.com/nao1215/flightdash/internal/model"
)

// FileName is the database file name inside the database directory.
const FileName = "flightdash.db"

// DB provides SQLite-based storage for price history and run records.
type DB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

var _ history.Store = (*DB)(nil)

// Options configures DB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging so readers do not block the writer.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the database in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*DB, error) {
	dbPath := filepath.Join(dbDir, FileName)

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

	// mode=rw refuses to create a missing file; mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	d := &DB{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := d.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (d *DB) createTables() error {
	schema := `
	-- Price points mirror the rows of price_log.csv
	CREATE TABLE IF NOT EXISTS price_points (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at TEXT NOT NULL,
		min_price INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_price_points_recorded ON price_points(recorded_at);

	-- Runs store one row per pipeline execution
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		status TEXT NOT NULL,
		error TEXT,
		min_price INTEGER,
		steps TEXT,
		artifacts TEXT,
		summary_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := d.db.ExecContext(context.Background(), schema)
	return err
}

// Append implements history.Store.
func (d *DB) Append(ctx context.Context, p model.PricePoint) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO price_points (recorded_at, min_price) VALUES (?, ?)`,
		formatTimestamp(p.RecordedAt),
		p.MinPrice,
	)
	if err != nil {
		return fmt.Errorf("failed to insert price point: %w", err)
	}
	return nil
}

// List implements history.Store. Points come back in insertion order.
func (d *DB) List(ctx context.Context) ([]model.PricePoint, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT recorded_at, min_price FROM price_points ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list price points: %w", err)
	}
	defer rows.Close()

	points := []model.PricePoint{}
	for rows.Next() {
		var recordedAt string
		var p model.PricePoint
		if err := rows.Scan(&recordedAt, &p.MinPrice); err != nil {
			return nil, fmt.Errorf("failed to scan price point: %w", err)
		}
		p.RecordedAt = parseTimestamp(recordedAt)
		points = append(points, p)
	}
	return points, rows.Err()
}

// ImportHistory appends points, typically read from the CSV history,
// in a single transaction. Points whose timestamp is already stored are
// skipped, so importing the same file twice is harmless. It returns the
// number of rows inserted.
func (d *DB) ImportHistory(ctx context.Context, points []model.PricePoint) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO price_points (recorded_at, min_price)
	SELECT ?, ?
	WHERE NOT EXISTS (SELECT 1 FROM price_points WHERE recorded_at = ?)`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, p := range points {
		ts := formatTimestamp(p.RecordedAt)
		res, err := stmt.ExecContext(ctx, ts, p.MinPrice, ts)
		if err != nil {
			return 0, fmt.Errorf("failed to insert price point: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit import: %w", err)
	}
	return inserted, nil
}

// SaveRun inserts or updates a run record.
func (d *DB) SaveRun(ctx context.Context, run *model.Run) error {
	var summaryJSON sql.NullString
	if run.Summary != nil {
		data, err := json.Marshal(run.Summary)
		if err != nil {
			return fmt.Errorf("failed to serialize summary: %w", err)
		}
		summaryJSON = sql.NullString{String: string(data), Valid: true}
	}

	var minPrice sql.NullInt64
	if p := run.MinPrice(); p != nil {
		minPrice = sql.NullInt64{Int64: *p, Valid: true}
	}

	var finishedAt sql.NullString
	if !run.FinishedAt.IsZero() {
		finishedAt = sql.NullString{String: formatTimestamp(run.FinishedAt), Valid: true}
	}

	query := `
	INSERT INTO runs (id, started_at, finished_at, status, error, min_price, steps, artifacts, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		finished_at = excluded.finished_at,
		status = excluded.status,
		error = excluded.error,
		min_price = excluded.min_price,
		steps = excluded.steps,
		artifacts = excluded.artifacts,
		summary_json = excluded.summary_json
	`

	_, err := d.db.ExecContext(ctx, query,
		run.ID,
		formatTimestamp(run.StartedAt),
		finishedAt,
		string(run.Status),
		run.ErrorMessage,
		minPrice,
		strings.Join(run.PerformedSteps, ","),
		strings.Join(run.Artifacts, "\n"),
		summaryJSON,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// RunRecord contains summary information about a stored run.
// It is used for listing runs without decoding their summaries.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Status     model.RunStatus
	Error      string
	MinPrice   *int64
	Steps      []string
}

// ListRuns returns the most recent runs first. A limit of zero or less
// returns every run.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, started_at, finished_at, status, error, min_price, steps
	FROM runs
	ORDER BY started_at DESC
	`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunRecord
	for rows.Next() {
		rec, err := scanRunRecord(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

// GetRun retrieves a run by ID, including its summary.
// It returns nil, nil when no such run exists.
func (d *DB) GetRun(ctx context.Context, id string) (*model.Run, error) {
	query := `
	SELECT id, started_at, finished_at, status, error, min_price, steps, artifacts, summary_json
	FROM runs
	WHERE id = ?
	`

	var (
		rec         RunRecord
		startedAt   string
		finishedAt  sql.NullString
		status      string
		errMsg      sql.NullString
		minPrice    sql.NullInt64
		steps       sql.NullString
		artifacts   sql.NullString
		summaryJSON sql.NullString
	)
	err := d.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID, &startedAt, &finishedAt, &status, &errMsg, &minPrice, &steps, &artifacts, &summaryJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run := &model.Run{
		ID:             rec.ID,
		StartedAt:      parseTimestamp(startedAt),
		Status:         model.RunStatus(status),
		ErrorMessage:   errMsg.String,
		PerformedSteps: splitNonEmpty(steps.String, ","),
		Artifacts:      splitNonEmpty(artifacts.String, "\n"),
	}
	if finishedAt.Valid {
		run.FinishedAt = parseTimestamp(finishedAt.String)
	}
	if summaryJSON.Valid && summaryJSON.String != "" {
		s, err := model.DecodeSummary([]byte(summaryJSON.String))
		if err != nil {
			return nil, fmt.Errorf("failed to parse summary: %w", err)
		}
		run.Summary = s
	}
	return run, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunRecord(row rowScanner) (RunRecord, error) {
	var (
		rec        RunRecord
		startedAt  string
		finishedAt sql.NullString
		status     string
		errMsg     sql.NullString
		minPrice   sql.NullInt64
		steps      sql.NullString
	)
	if err := row.Scan(&rec.ID, &startedAt, &finishedAt, &status, &errMsg, &minPrice, &steps); err != nil {
		return RunRecord{}, fmt.Errorf("failed to scan run: %w", err)
	}
	rec.StartedAt = parseTimestamp(startedAt)
	if finishedAt.Valid {
		rec.FinishedAt = parseTimestamp(finishedAt.String)
	}
	rec.Status = model.RunStatus(status)
	rec.Error = errMsg.String
	if minPrice.Valid {
		v := minPrice.Int64
		rec.MinPrice = &v
	}
	rec.Steps = splitNonEmpty(steps.String, ",")
	return rec, nil
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}

// storedTimeLayout is RFC3339 with a fixed-width fraction, so stored
// timestamps sort correctly as text.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp stores times in UTC using storedTimeLayout.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

// timestampFormats contains the timestamp formats that may be stored.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // storedTimeLayout and other RFC3339 fractions
	time.RFC3339,              // RFC3339 without fraction
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
