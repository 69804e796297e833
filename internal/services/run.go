package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kubev2v/taskmaster/internal/config"
	"github.com/kubev2v/taskmaster/internal/models"
	"github.com/kubev2v/taskmaster/internal/store"
	srvErrors "github.com/kubev2v/taskmaster/pkg/errors"
	"github.com/kubev2v/taskmaster/pkg/master"
	"github.com/kubev2v/taskmaster/pkg/scheduler"
	"github.com/kubev2v/taskmaster/pkg/workload"
)

const defaultMedianBand = 16

// computation executes a workload and returns its printable result and the
// number of workers that took part.
type computation func(ctx context.Context, opts ...master.Option) (string, int, error)

type activeRun struct {
	future *scheduler.Future[*models.Run]
	done   chan struct{}
}

// RunService launches workloads on masters in the background and keeps the
// ledger up to date.
type RunService struct {
	store     *store.Store
	scheduler *scheduler.Scheduler[*models.Run]
	engine    config.Engine
	metrics   *master.Metrics
	log       *zap.SugaredLogger

	mu     sync.Mutex
	active map[uuid.UUID]*activeRun
	closed bool
	wg     sync.WaitGroup
}

// NewRunService creates the service. At most maxConcurrent computations
// execute at once. metrics may be nil.
func NewRunService(st *store.Store, engine config.Engine, maxConcurrent int, metrics *master.Metrics) *RunService {
	return &RunService{
		store:     st,
		scheduler: scheduler.NewScheduler[*models.Run](maxConcurrent),
		engine:    engine,
		metrics:   metrics,
		log:       zap.S().Named("run_service"),
		active:    make(map[uuid.UUID]*activeRun),
	}
}

type SumParams struct {
	Size    uint64
	Chunk   uint64
	Workers int
	// Serial runs every task in one goroutine.
	Serial bool
}

type MedianParams struct {
	Rows    int
	Cols    int
	Radius  int
	Band    int
	Seed    uint64
	Workers int
	Serial  bool
}

type RunListParams struct {
	Statuses  []models.RunStatus
	Workloads []models.Workload
	Limit     uint64
	Offset    uint64
}

type RunListResult struct {
	Runs  []models.Run
	Total int
}

// StartSum records and launches the sum of [0, Size).
func (s *RunService) StartSum(ctx context.Context, p SumParams) (*models.Run, error) {
	if err := s.checkWorkers(p.Workers); err != nil {
		return nil, err
	}
	if !workload.SumFits(p.Size) {
		return nil, srvErrors.NewInvalidParameterError("size", "the sum overflows 64 bits above %d, got %d", workload.MaxSumSize, p.Size)
	}
	if p.Chunk == 0 {
		p.Chunk = uint64(s.engine.ChunkSize)
	}
	// no range is longer than MaxSumSize, larger chunks behave the same
	p.Chunk = min(p.Chunk, workload.MaxSumSize)
	if p.Workers == 0 {
		p.Workers = s.engine.Workers
	}

	run := s.newRun(models.WorkloadSum, p.Workers, int(p.Chunk), int64(p.Size),
		fmt.Sprintf("size=%d chunk=%d serial=%t", p.Size, p.Chunk, p.Serial))

	return s.start(ctx, run, func(ctx context.Context, opts ...master.Option) (string, int, error) {
		sum := workload.NewSum(p.Size, p.Chunk)
		workers, err := runJob(ctx, sum.Job(), p.Workers, p.Serial, opts...)
		return fmt.Sprint(sum.Total()), workers, err
	})
}

// StartMedian records and launches a row median filter over a random field.
func (s *RunService) StartMedian(ctx context.Context, p MedianParams) (*models.Run, error) {
	if err := s.checkWorkers(p.Workers); err != nil {
		return nil, err
	}
	if p.Rows <= 0 || p.Cols <= 0 {
		return nil, srvErrors.NewInvalidParameterError("field", "size must be positive, got %dx%d", p.Rows, p.Cols)
	}
	if cells, ok := workload.FieldCells(p.Rows, p.Cols); !ok || cells > s.engine.MaxFieldCells {
		return nil, srvErrors.NewInvalidParameterError("field", "must not exceed %d cells, got %dx%d", s.engine.MaxFieldCells, p.Rows, p.Cols)
	}
	if p.Radius < 0 {
		return nil, srvErrors.NewInvalidParameterError("radius", "must not be negative, got %d", p.Radius)
	}
	if p.Band <= 0 {
		p.Band = defaultMedianBand
	}
	if p.Workers == 0 {
		p.Workers = s.engine.Workers
	}

	run := s.newRun(models.WorkloadRowMedian, p.Workers, p.Band, int64(p.Rows)*int64(p.Cols),
		fmt.Sprintf("rows=%d cols=%d radius=%d band=%d seed=%d serial=%t", p.Rows, p.Cols, p.Radius, p.Band, p.Seed, p.Serial))

	return s.start(ctx, run, func(ctx context.Context, opts ...master.Option) (string, int, error) {
		filter, err := workload.NewRowMedian(workload.RandomField(p.Rows, p.Cols, p.Seed), p.Radius, p.Band)
		if err != nil {
			return "", 0, err
		}
		workers, err := runJob(ctx, filter.Job(), p.Workers, p.Serial, opts...)
		if err != nil {
			return "", workers, err
		}
		return FormatMean(mean(filter.Output().Data)), workers, nil
	})
}

func (s *RunService) checkWorkers(n int) error {
	if n < 0 {
		return srvErrors.NewInvalidParameterError("workers", "must not be negative, got %d", n)
	}
	if n > s.engine.MaxWorkers {
		return srvErrors.NewInvalidParameterError("workers", "must not exceed %d, got %d", s.engine.MaxWorkers, n)
	}
	return nil
}

// Get returns a run of the ledger.
func (s *RunService) Get(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	return s.store.Runs().Get(ctx, id)
}

// List returns a page of runs and the number of runs matching the filters.
func (s *RunService) List(ctx context.Context, params RunListParams) (*RunListResult, error) {
	filters := []store.ListOption{
		store.ByStatus(params.Statuses...),
		store.ByWorkload(params.Workloads...),
	}

	opts := slices.Clone(filters)
	if params.Limit > 0 {
		opts = append(opts, store.WithLimit(params.Limit))
	}
	if params.Offset > 0 {
		opts = append(opts, store.WithOffset(params.Offset))
	}

	runs, err := s.store.Runs().List(ctx, opts...)
	if err != nil {
		return nil, err
	}

	total, err := s.store.Runs().Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	return &RunListResult{Runs: runs, Total: total}, nil
}

// Cancel stops a running computation. Tasks already handed to a worker
// complete; the run is then recorded as cancelled.
func (s *RunService) Cancel(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	a, ok := s.active[id]
	s.mu.Unlock()

	if ok {
		s.log.Infow("cancelling run", "run", id)
		a.future.Stop()
		return nil
	}

	run, err := s.store.Runs().Get(ctx, id)
	if err != nil {
		return err
	}
	return srvErrors.NewRunNotActiveError(id.String(), string(run.Status))
}

// Wait blocks until the run finished and returns its final record.
func (s *RunService) Wait(ctx context.Context, id uuid.UUID) (*models.Run, error) {
	s.mu.Lock()
	a, ok := s.active[id]
	s.mu.Unlock()

	if ok {
		select {
		case <-a.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.store.Runs().Get(ctx, id)
}

// Active returns the number of runs not finished yet.
func (s *RunService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// RecoverInterrupted fails the runs a previous process left running.
func (s *RunService) RecoverInterrupted(ctx context.Context) error {
	n, err := s.store.Runs().FailRunning(ctx, "interrupted by restart")
	if err != nil {
		return err
	}
	if n > 0 {
		s.log.Warnw("recovered interrupted runs", "count", n)
	}
	return nil
}

// Close cancels every run, waits for them to be recorded and refuses new
// ones. It does not close the store.
func (s *RunService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.scheduler.Close()
	s.wg.Wait()
}

func (s *RunService) newRun(w models.Workload, workers, chunk int, size int64, params string) *models.Run {
	return &models.Run{
		ID:         uuid.New(),
		Workload:   w,
		Workers:    workers,
		ChunkSize:  chunk,
		Size:       size,
		Parameters: params,
		Status:     models.RunStatusRunning,
		StartedAt:  time.Now().UTC(),
	}
}

func (s *RunService) start(ctx context.Context, run *models.Run, compute computation) (*models.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, srvErrors.NewServiceClosedError("run")
	}

	if err := s.store.Runs().Create(ctx, run); err != nil {
		return nil, err
	}

	record := *run
	a := &activeRun{done: make(chan struct{})}
	a.future = s.scheduler.AddWork(func(ctx context.Context) (*models.Run, error) {
		r := record
		return s.execute(ctx, &r, compute)
	})
	s.active[run.ID] = a

	s.wg.Add(1)
	go s.track(record, a)

	s.log.Infow("run queued", "run", run.ID, "workload", run.Workload, "parameters", run.Parameters)
	return run, nil
}

func (s *RunService) execute(ctx context.Context, run *models.Run, compute computation) (*models.Run, error) {
	log := s.log.With("run", run.ID, "workload", run.Workload)
	log.Infow("run started")

	result, workers, err := compute(ctx,
		master.WithName(string(run.Workload)),
		master.WithLogger(log.Named("master")),
		master.WithMetrics(s.metrics),
		master.WithBackoff(s.engine.BackoffInitial, s.engine.BackoffMax),
	)
	if workers > 0 {
		run.Workers = workers
	}
	finish(run, result, err)

	log.Infow("run finished", "status", run.Status, "duration", run.Duration(), "error", run.Error)
	return run, nil
}

// track records the outcome of a run and forgets it. The ledger update and
// the removal from the active set happen under the lock so Cancel never sees
// a finished run as active.
func (s *RunService) track(run models.Run, a *activeRun) {
	defer s.wg.Done()
	defer close(a.done)

	res := <-a.future.C()
	final := res.Data
	if final == nil {
		// answered by the scheduler without executing, or panicked
		err := res.Err
		if err == nil {
			err = errors.New("run produced no record")
		}
		finish(&run, "", err)
		final = &run
		s.log.Infow("run finished before starting", "run", run.ID, "status", run.Status)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Runs().Update(context.Background(), final); err != nil {
		s.log.Errorw("failed to record run outcome", "run", run.ID, "error", err)
	}
	delete(s.active, run.ID)
}

func finish(run *models.Run, result string, err error) {
	now := time.Now().UTC()
	run.FinishedAt = &now
	switch {
	case err == nil:
		run.Status = models.RunStatusCompleted
		run.Result = result
	case master.IsCancelled(err) || errors.Is(err, context.Canceled):
		run.Status = models.RunStatusCancelled
		run.Error = err.Error()
	default:
		run.Status = models.RunStatusFailed
		run.Error = err.Error()
	}
}

// runJob runs job on a fresh master and returns the number of workers used.
func runJob[T, R, D any](ctx context.Context, job master.Job[T, R, D], workers int, serial bool, opts ...master.Option) (int, error) {
	newMaster := master.New[T, R, D]
	if serial {
		newMaster = master.NewSerial[T, R, D]
	}
	m := newMaster(opts...)
	defer m.Close()

	if err := m.SetJob(job); err != nil {
		return 0, err
	}
	if err := m.CreateWorkers(workers); err != nil {
		return 0, err
	}
	return m.Workers(), m.ManageTasks(ctx)
}

// FormatMean renders the result of a median run.
func FormatMean(v float64) string {
	return fmt.Sprintf("mean=%.6f", v)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
