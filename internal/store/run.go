package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/kubev2v/taskmaster/internal/models"
	srvErrors "github.com/kubev2v/taskmaster/pkg/errors"
)

// RunStore persists the run ledger.
type RunStore struct {
	db QueryInterceptor
}

func NewRunStore(db QueryInterceptor) *RunStore {
	return &RunStore{db: db}
}

// Create inserts a new run.
func (s *RunStore) Create(ctx context.Context, run *models.Run) error {
	_, err := s.db.ExecContext(ctx, queryInsertRun,
		run.ID.String(),
		string(run.Workload),
		run.Workers,
		run.ChunkSize,
		run.Size,
		run.Parameters,
		string(run.Status),
		run.Result,
		run.Error,
		run.StartedAt.UTC(),
		nullTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run %s: %w", run.ID, err)
	}
	return nil
}

// Update stores the mutable part of a run: workers, status, result, error and
// finish time.
func (s *RunStore) Update(ctx context.Context, run *models.Run) error {
	res, err := s.db.ExecContext(ctx, queryUpdateRun,
		run.Workers,
		string(run.Status),
		run.Result,
		run.Error,
		nullTime(run.FinishedAt),
		run.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return srvErrors.NewRunNotFoundError(run.ID.String())
	}
	return nil
}

// Get returns the run or a ResourceNotFoundError.
func (s *RunStore) Get(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	query, args, err := sq.Select(runColumns...).From("runs").Where(sq.Eq{"id": id.String()}).ToSql()
	if err != nil {
		return nil, err
	}

	run, err := scanRun(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, srvErrors.NewRunNotFoundError(id.String())
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// List returns runs, most recent first, filtered and paginated by opts.
func (s *RunStore) List(ctx context.Context, opts ...ListOption) ([]models.Run, error) {
	builder := sq.Select(runColumns...).From("runs").OrderBy("started_at DESC", "id")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}

	return runs, rows.Err()
}

// Count returns the number of runs matching the filter options. Pagination
// options must not be passed.
func (s *RunStore) Count(ctx context.Context, opts ...ListOption) (int, error) {
	builder := sq.Select("COUNT(*)").From("runs")

	for _, opt := range opts {
		builder = opt(builder)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// FailRunning marks every run still recorded as running as failed. Used at
// startup: a run cannot survive the process that executed it.
func (s *RunStore) FailRunning(ctx context.Context, reason string) (int64, error) {
	query, args, err := sq.Update("runs").
		Set("status", string(models.RunStatusFailed)).
		Set("error", reason).
		Set("finished_at", time.Now().UTC()).
		Where(sq.Eq{"status": string(models.RunStatusRunning)}).
		ToSql()
	if err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type ListOption func(sq.SelectBuilder) sq.SelectBuilder

func ByStatus(statuses ...models.RunStatus) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(statuses) == 0 {
			return b
		}
		values := make([]string, 0, len(statuses))
		for _, st := range statuses {
			values = append(values, string(st))
		}
		return b.Where(sq.Eq{"status": values})
	}
}

func ByWorkload(workloads ...models.Workload) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		if len(workloads) == 0 {
			return b
		}
		values := make([]string, 0, len(workloads))
		for _, w := range workloads {
			values = append(values, string(w))
		}
		return b.Where(sq.Eq{"workload": values})
	}
}

func StartedAfter(t time.Time) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Where(sq.GtOrEq{"started_at": t.UTC()})
	}
}

func WithLimit(limit uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Limit(limit)
	}
}

func WithOffset(offset uint64) ListOption {
	return func(b sq.SelectBuilder) sq.SelectBuilder {
		return b.Offset(offset)
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*models.Run, error) {
	var (
		run      models.Run
		id       string
		workload string
		status   string
		finished sql.NullTime
	)
	err := row.Scan(
		&id,
		&workload,
		&run.Workers,
		&run.ChunkSize,
		&run.Size,
		&run.Parameters,
		&status,
		&run.Result,
		&run.Error,
		&run.StartedAt,
		&finished,
	)
	if err != nil {
		return nil, err
	}

	if run.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", id, err)
	}
	run.Workload = models.Workload(workload)
	run.Status = models.RunStatus(status)
	if finished.Valid {
		t := finished.Time
		run.FinishedAt = &t
	}
	return &run, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
