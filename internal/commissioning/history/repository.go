package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultLimit = 50
	maxLimit     = 200

	// timeLayout is fixed width so timestamps order correctly as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// Repository stores import runs.
type Repository interface {
	Create(ctx context.Context, run *Run) error
	Get(ctx context.Context, id string) (*Run, error)
	List(ctx context.Context, filter Filter) (*ListResult, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SQLiteRepository keeps runs in the import_runs table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a repository on an already migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const runColumns = `id, filename, archive_sha256, archive_bytes, status, error_code, error_message,
	project_name, group_address_style, language,
	areas, lines, devices, group_addresses, group_links, locations, warnings,
	duration_ms, started_at, finished_at`

// Create inserts run. A missing ID is generated and a zero FinishedAt
// defaults to now.
func (r *SQLiteRepository) Create(ctx context.Context, run *Run) error {
	if run.Filename == "" {
		return fmt.Errorf("%w: filename is required", ErrInvalidRun)
	}
	switch run.Status {
	case StatusSucceeded, StatusFailed:
	default:
		return fmt.Errorf("%w: status %q", ErrInvalidRun, run.Status)
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt.Add(-run.Duration)
	}

	s := run.Statistics
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO import_runs (`+runColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Filename, run.ArchiveSHA256, run.ArchiveBytes, string(run.Status),
		run.ErrorCode, run.ErrorMessage,
		run.ProjectName, run.GroupAddressStyle, run.Language,
		s.Areas, s.Lines, s.Devices, s.GroupAddresses, s.GroupLinks, s.Locations, s.Warnings,
		run.Duration.Milliseconds(),
		run.StartedAt.UTC().Format(timeLayout),
		run.FinishedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting import run: %w", err)
	}
	return nil
}

// Get returns the run with the given ID, or ErrRunNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM import_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns runs matching filter, most recent first.
func (r *SQLiteRepository) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultLimit
	}
	if filter.Limit > maxLimit {
		filter.Limit = maxLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var conditions []string
	var args []any
	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM import_runs " + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting import runs: %w", err)
	}

	query := `SELECT ` + runColumns + ` FROM import_runs ` + where +
		` ORDER BY started_at DESC, id LIMIT ? OFFSET ?`
	rows, err := r.db.QueryContext(ctx, query, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, fmt.Errorf("querying import runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating import runs: %w", err)
	}

	return &ListResult{Runs: runs, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

// DeleteBefore removes runs that started before cutoff and reports how
// many were deleted.
func (r *SQLiteRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM import_runs WHERE started_at < ?",
		cutoff.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting import runs: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted import runs: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var status, startedAt, finishedAt string
	var durationMS int64
	s := &run.Statistics
	err := row.Scan(
		&run.ID, &run.Filename, &run.ArchiveSHA256, &run.ArchiveBytes, &status,
		&run.ErrorCode, &run.ErrorMessage,
		&run.ProjectName, &run.GroupAddressStyle, &run.Language,
		&s.Areas, &s.Lines, &s.Devices, &s.GroupAddresses, &s.GroupLinks, &s.Locations, &s.Warnings,
		&durationMS, &startedAt, &finishedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning import run: %w", err)
	}

	run.Status = Status(status)
	run.Duration = time.Duration(durationMS) * time.Millisecond
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	if run.FinishedAt, err = time.Parse(timeLayout, finishedAt); err != nil {
		return nil, fmt.Errorf("parsing finished_at %q: %w", finishedAt, err)
	}
	return &run, nil
}
