package master

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// Master distributes tasks to a pool of worker goroutines and blocks until
// they are all done.
type Master[T, R, D any] struct {
	opts   options
	serial bool

	mu        sync.Mutex
	job       Job[T, R, D]
	workers   []*worker[T, R, D]
	closed    bool
	cancelRun context.CancelCauseFunc

	// serial masters keep their single worker here
	inline  *worker[T, R, D]
	created bool
	// creating is set while CreateWorkers runs without holding mu
	creating bool

	runMu   sync.Mutex
	running atomic.Bool
	live    atomic.Int32
}

// New creates a master. Workers must be created with CreateWorkers before
// tasks can be managed.
func New[T, R, D any](opts ...Option) *Master[T, R, D] {
	return &Master[T, R, D]{opts: newOptions(opts...)}
}

// NewSerial creates a master doing all the work itself, in the goroutine
// calling ManageTasks. It behaves like a master with a single worker and is
// useful when the same code must run both in parallel and serially.
func NewSerial[T, R, D any](opts ...Option) *Master[T, R, D] {
	return &Master[T, R, D]{opts: newOptions(opts...), serial: true}
}

// SetJob sets all the callbacks at once.
func (m *Master[T, R, D]) SetJob(job Job[T, R, D]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIdle(); err != nil {
		return err
	}
	if m.hasWorkers() && (job.CreateData != nil || job.DestroyData != nil) {
		return &ConfigError{Reason: "worker data functions must be set before creating workers"}
	}
	create, destroy := m.job.CreateData, m.job.DestroyData
	m.job = job
	if m.hasWorkers() {
		m.job.CreateData, m.job.DestroyData = create, destroy
	}
	return nil
}

// SetWorker sets the function executing the tasks.
func (m *Master[T, R, D]) SetWorker(fn WorkerFunc[T, R, D]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIdle(); err != nil {
		return err
	}
	m.job.Work = fn
	return nil
}

// SetTaskProvider sets the function providing the tasks.
func (m *Master[T, R, D]) SetTaskProvider(fn TaskFunc[T]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIdle(); err != nil {
		return err
	}
	m.job.ProvideTask = fn
	return nil
}

// SetResultConsumer sets the function consuming the results.
func (m *Master[T, R, D]) SetResultConsumer(fn ResultFunc[R]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIdle(); err != nil {
		return err
	}
	m.job.ConsumeResult = fn
	return nil
}

// SetWorkerData sets the factories of the per-worker data. They are called
// once per worker, by CreateWorkers and Close respectively, so they must be
// set before the workers exist.
func (m *Master[T, R, D]) SetWorkerData(create CreateDataFunc[D], destroy DestroyDataFunc[D]) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkIdle(); err != nil {
		return err
	}
	if m.hasWorkers() {
		return &ConfigError{Reason: "worker data functions must be set before creating workers"}
	}
	m.job.CreateData = create
	m.job.DestroyData = destroy
	return nil
}

// CreateWorkers starts n worker goroutines and creates their data. Zero means
// one worker per available processor. The workers live until Close.
//
// If the data factory fails for any worker, the workers already created are
// retired and a *WorkerDataError is returned.
func (m *Master[T, R, D]) CreateWorkers(n int) error {
	if m.running.Load() {
		return ErrBusy
	}
	if n < 0 {
		return &ConfigError{Reason: "negative number of workers"}
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.hasWorkers() {
		m.mu.Unlock()
		m.opts.log.Warn("master already has workers")
		return nil
	}
	job := m.job
	m.creating = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.creating = false
		m.mu.Unlock()
	}()

	if err := job.validate(); err != nil {
		return err
	}

	if m.serial {
		n = 1
	} else if n == 0 {
		n = max(runtime.GOMAXPROCS(0), 1)
	}

	workers := make([]*worker[T, R, D], n)
	ready := make(chan error, n)
	for i := range workers {
		workers[i] = newWorker[T, R, D](i)
		if m.serial {
			break
		}
		workers[i].start(job.CreateData, job.DestroyData, &m.live, &m.opts, ready)
	}

	if m.serial {
		return m.createInline(workers[0], job)
	}

	var firstErr error
	for range workers {
		if err := <-ready; err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		// failed workers have already exited, closing their channel is harmless
		for _, w := range workers {
			w.retire()
		}
		m.opts.log.Errorw("failed to create workers", "error", firstErr)
		return firstErr
	}

	m.mu.Lock()
	m.workers = workers
	m.mu.Unlock()

	m.opts.log.Debugw("workers created", "count", n)
	return nil
}

func (m *Master[T, R, D]) createInline(w *worker[T, R, D], job Job[T, R, D]) error {
	w.destroy = job.DestroyData
	if job.CreateData != nil {
		err := safely("create worker data", func() error {
			var err error
			w.data, err = job.CreateData()
			return err
		})
		if err != nil {
			return &WorkerDataError{Worker: w.id, Err: err}
		}
	}

	m.mu.Lock()
	m.inline = w
	m.created = true
	m.mu.Unlock()
	return nil
}

// Workers returns the number of live workers.
func (m *Master[T, R, D]) Workers() int {
	if m.serial {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.created {
			return 1
		}
		return 0
	}
	return int(m.live.Load())
}

// ManageTasks runs the computation using every worker. See ManageTasksLimit.
func (m *Master[T, R, D]) ManageTasks(ctx context.Context) error {
	return m.ManageTasksLimit(ctx, 0)
}

// ManageTasksLimit runs the computation on at most limit workers (zero means
// all of them) and blocks until the tasks are exhausted, the context is
// cancelled or a fatal error occurs. In every case it returns only after all
// the workers have finished their current task.
//
// It returns nil when the tasks were exhausted, an error matching ErrCancelled
// when ctx was cancelled, and a *WorkerError for the first fatal error.
// Calling it while another call is in flight fails with ErrBusy.
func (m *Master[T, R, D]) ManageTasksLimit(ctx context.Context, limit int) error {
	if !m.running.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer m.running.Store(false)

	m.runMu.Lock()
	defer m.runMu.Unlock()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	job := m.job
	workers := m.workers
	inline := m.inline
	m.cancelRun = cancel
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.cancelRun = nil
		m.mu.Unlock()
	}()

	if err := job.validate(); err != nil {
		return err
	}
	if len(workers) == 0 && inline == nil {
		return ErrNoWorkers
	}
	if ctx.Err() != nil {
		err := newCancelledError(context.Cause(ctx))
		m.opts.metrics.runFinished(m.opts.name, err)
		return err
	}

	r := &run[T, R, D]{
		ctx:     runCtx,
		cancel:  cancel,
		work:    job.Work,
		queue:   newTaskQueue(job.ProvideTask),
		sink:    newResultSink(job.ConsumeResult),
		name:    m.opts.name,
		log:     m.opts.log,
		metrics: m.opts.metrics,
		initial: m.opts.backoffInitial,
		max:     m.opts.backoffMax,
	}

	if inline != nil {
		inline.process(r)
	} else {
		if limit > 0 && limit < len(workers) {
			workers = workers[:limit]
		}
		r.wg.Add(len(workers))
		for _, w := range workers {
			w.runs <- r
		}
		r.wg.Wait()
	}

	err := r.outcome(ctx)
	m.opts.metrics.runFinished(m.opts.name, err)
	if err != nil {
		m.opts.log.Debugw("computation finished", "error", err)
	}
	return err
}

// Close cancels the computation in flight, if any, waits for it to finish and
// retires all the workers, destroying their data. It can be called any number
// of times.
func (m *Master[T, R, D]) Close() {
	m.mu.Lock()
	m.closed = true
	cancel := m.cancelRun
	m.mu.Unlock()

	if cancel != nil {
		cancel(ErrClosed)
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.mu.Lock()
	workers := m.workers
	inline := m.inline
	m.workers = nil
	m.inline = nil
	m.created = false
	m.mu.Unlock()

	for _, w := range workers {
		w.retire()
	}
	if inline != nil && inline.destroy != nil {
		if err := safely("destroy worker data", func() error {
			inline.destroy(inline.data)
			return nil
		}); err != nil {
			m.opts.log.Errorw("failed to destroy worker data", "error", err)
		}
	}
	if len(workers) > 0 {
		m.opts.log.Debugw("workers retired", "count", len(workers))
	}
}

func (m *Master[T, R, D]) checkIdle() error {
	if m.closed {
		return ErrClosed
	}
	if m.running.Load() {
		return ErrBusy
	}
	return nil
}

func (m *Master[T, R, D]) hasWorkers() bool {
	return m.creating || len(m.workers) > 0 || m.inline != nil
}

// Run is the single-shot form: it creates n workers for job, manages the tasks
// until completion or cancellation and tears the workers down.
func Run[T, R, D any](ctx context.Context, n int, job Job[T, R, D], opts ...Option) error {
	m := New[T, R, D](opts...)
	defer m.Close()

	if err := m.SetJob(job); err != nil {
		return err
	}
	if err := m.CreateWorkers(n); err != nil {
		return err
	}
	return m.ManageTasks(ctx)
}
