// Package journal keeps the host-side history of install and uninstall
// outcomes in a local SQLite database. The provider core never reads it.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/quantmind-br/msipkg/internal/core"
	_ "modernc.org/sqlite"
)

// Operations recorded in the journal
const (
	OpInstall   = "install"
	OpUninstall = "uninstall"
)

// Outcome statuses
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrNotFound is returned when an entry does not exist
var ErrNotFound = errors.New("journal entry not found")

// Journal is the operation history database with separate read/write pools
type Journal struct {
	write *sql.DB
	read  *sql.DB
	path  string
}

// Open opens or creates the journal at path
func Open(ctx context.Context, path string) (*Journal, error) {
	connStr := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	// Write pool: MUST be 1 connection only
	write, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open write connection: %w", err)
	}
	write.SetMaxOpenConns(1)
	write.SetMaxIdleConns(1)
	write.SetConnMaxIdleTime(time.Minute)
	write.SetConnMaxLifetime(time.Hour)

	read, err := sql.Open("sqlite", connStr)
	if err != nil {
		write.Close()
		return nil, fmt.Errorf("open read connection: %w", err)
	}
	read.SetMaxOpenConns(4)
	read.SetMaxIdleConns(2)
	read.SetConnMaxIdleTime(time.Minute)
	read.SetConnMaxLifetime(time.Hour)

	j := &Journal{write: write, read: read, path: path}

	if err := j.initSchema(ctx); err != nil {
		j.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return j, nil
}

// Path returns the database file
func (j *Journal) Path() string {
	return j.path
}

// Close closes both pools
func (j *Journal) Close() error {
	writeErr := j.write.Close()
	readErr := j.read.Close()
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

func (j *Journal) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS operations (
    id TEXT PRIMARY KEY,
    op TEXT NOT NULL,
    name TEXT NOT NULL,
    version TEXT,
    location TEXT,
    kind TEXT,
    status TEXT NOT NULL,
    reboot_required INTEGER NOT NULL DEFAULT 0,
    message TEXT,
    metadata TEXT,
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_operations_name ON operations(name);
CREATE INDEX IF NOT EXISTS idx_operations_created ON operations(created_at);
	`

	if _, err := j.write.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Entry is one recorded outcome
type Entry struct {
	ID             string
	Op             string
	Name           string
	Version        string
	Location       string
	Kind           string
	Status         string
	RebootRequired bool
	Message        string
	Metadata       map[string]any
	CreatedAt      time.Time
}

// NewEntry builds an entry for pkg. A non-nil err marks it failed.
func NewEntry(op string, pkg *core.Package, err error) *Entry {
	e := &Entry{Op: op, Status: StatusSucceeded}
	if pkg != nil {
		e.Name = pkg.Name
		e.Version = pkg.VersionString()
		e.Location = pkg.Location()
		e.Kind, _ = pkg.Metadata.String(core.KeyInstallType)
		e.Metadata = pkg.Metadata
	}
	if err != nil {
		e.Status = StatusFailed
		e.Message = err.Error()
		var perr *core.Error
		if errors.As(err, &perr) && e.Name == "" {
			e.Name = perr.Target
		}
	}
	return e
}

// Record stores e, filling in its ID and timestamp when unset
func (j *Journal) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	metadataJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	query := `
INSERT INTO operations (id, op, name, version, location, kind, status, reboot_required, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = j.write.ExecContext(ctx, query,
		e.ID,
		e.Op,
		e.Name,
		e.Version,
		e.Location,
		e.Kind,
		e.Status,
		e.RebootRequired,
		e.Message,
		string(metadataJSON),
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert operation: %w", err)
	}
	return nil
}

const selectColumns = `id, op, name, version, location, kind, status, reboot_required, message, metadata, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e            Entry
		metadataJSON string
	)
	if err := row.Scan(
		&e.ID,
		&e.Op,
		&e.Name,
		&e.Version,
		&e.Location,
		&e.Kind,
		&e.Status,
		&e.RebootRequired,
		&e.Message,
		&metadataJSON,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(metadataJSON), &e.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &e, nil
}

// Get returns the entry with id
func (j *Journal) Get(ctx context.Context, id string) (*Entry, error) {
	row := j.read.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM operations WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query operation: %w", err)
	}
	return e, nil
}

// ListOptions filters List
type ListOptions struct {
	Name  string // exact name; empty for all
	Limit int    // 0 for no limit
}

// List returns entries, newest first
func (j *Journal) List(ctx context.Context, opts ListOptions) ([]Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM operations`
	var args []any
	if opts.Name != "" {
		query += ` WHERE name = ?`
		args = append(args, opts.Name)
	}
	query += ` ORDER BY created_at DESC`
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
	}

	rows, err := j.read.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return entries, nil
}

// Prune deletes entries older than before and returns how many were removed
func (j *Journal) Prune(ctx context.Context, before time.Time) (int64, error) {
	result, err := j.write.ExecContext(ctx, `DELETE FROM operations WHERE created_at < ?`, before)
	if err != nil {
		return 0, fmt.Errorf("prune operations: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return n, nil
}
