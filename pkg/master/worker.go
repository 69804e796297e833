package master

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

// run is the state shared by the workers taking part in one ManageTasks call.
type run[T, R, D any] struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	work   WorkerFunc[T, R, D]
	queue  *taskQueue[T]
	sink   *resultSink[R]
	wg     sync.WaitGroup

	name    string
	log     *zap.SugaredLogger
	metrics *Metrics
	initial time.Duration
	max     time.Duration

	mu        sync.Mutex
	err       error
	cause     error
	cancelled atomic.Bool
}

// fail records the first fatal error and stops the other workers. Later errors
// are only logged.
func (r *run[T, R, D]) fail(worker int, err error) {
	r.metrics.workerFailed(r.name)

	r.mu.Lock()
	first := r.err == nil
	if first {
		r.err = &WorkerError{Worker: worker, Err: err}
	}
	r.mu.Unlock()

	if !first {
		r.log.Warnw("suppressed worker error", "worker", worker, "error", err)
		return
	}

	r.log.Errorw("worker failed, cancelling computation", "worker", worker, "error", err)
	r.queue.stop()
	r.cancel(err)
}

func (r *run[T, R, D]) observeCancel() {
	r.mu.Lock()
	if r.cause == nil {
		r.cause = context.Cause(r.ctx)
	}
	r.mu.Unlock()
	r.cancelled.Store(true)
}

// outcome is the value returned by ManageTasks once every worker is done.
func (r *run[T, R, D]) outcome(parent context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}
	if r.cancelled.Load() {
		return newCancelledError(r.cause)
	}
	if parent.Err() != nil {
		return newCancelledError(context.Cause(parent))
	}
	return nil
}

func (r *run[T, R, D]) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initial
	b.MaxInterval = r.max
	b.Reset()
	return b
}

// worker is one execution unit of the pool. Its data is only ever touched by
// the goroutine running it.
type worker[T, R, D any] struct {
	id   int
	data D
	// destroy is set on inline workers, pooled ones capture it in start
	destroy DestroyDataFunc[D]
	runs    chan *run[T, R, D]
	exited  chan struct{}
}

func newWorker[T, R, D any](id int) *worker[T, R, D] {
	return &worker[T, R, D]{
		id:     id,
		runs:   make(chan *run[T, R, D]),
		exited: make(chan struct{}),
	}
}

// start launches the worker goroutine. The result of the data factory is
// reported on ready; on failure the goroutine exits without entering the loop.
func (w *worker[T, R, D]) start(create CreateDataFunc[D], destroy DestroyDataFunc[D], live *atomic.Int32, o *options, ready chan<- error) {
	live.Add(1)
	o.metrics.workerStarted(o.name)

	go func() {
		defer func() {
			live.Add(-1)
			o.metrics.workerExited(o.name)
			close(w.exited)
		}()

		if create != nil {
			err := safely("create worker data", func() error {
				var err error
				w.data, err = create()
				return err
			})
			if err != nil {
				ready <- &WorkerDataError{Worker: w.id, Err: err}
				return
			}
		}
		ready <- nil

		for r := range w.runs {
			w.process(r)
			r.wg.Done()
		}

		if destroy != nil {
			if err := safely("destroy worker data", func() error {
				destroy(w.data)
				return nil
			}); err != nil {
				o.log.Errorw("failed to destroy worker data", "worker", w.id, "error", err)
			}
		}
	}()
}

// retire stops the worker goroutine and waits for it to exit.
func (w *worker[T, R, D]) retire() {
	close(w.runs)
	<-w.exited
}

// process is the work loop: poll a task, execute it, submit the result.
// Cancellation is only checked before polling so a task taken from the
// provider always goes through the worker function and the consumer.
func (w *worker[T, R, D]) process(r *run[T, R, D]) {
	bo := r.newBackOff()

	for {
		if r.ctx.Err() != nil {
			r.observeCancel()
			return
		}

		task, state, err := r.queue.next()
		switch state {
		case pollEnd:
			return
		case pollFailed:
			r.fail(w.id, err)
			return
		case pollTryAgain:
			r.metrics.tryAgainPolled(r.name)
			d := bo.NextBackOff()
			if d == backoff.Stop {
				d = r.max
			}
			sleep(r.ctx, d)
			continue
		}
		bo.Reset()

		var result R
		start := time.Now()
		err = safely("worker function", func() error {
			var err error
			result, err = r.work(task, w.data)
			return err
		})
		r.metrics.taskDone(r.name, time.Since(start), err)
		if err != nil {
			r.fail(w.id, err)
			r.queue.done()
			return
		}

		if err := r.sink.submit(result); err != nil {
			r.fail(w.id, err)
			r.queue.done()
			return
		}
		r.queue.done()
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
