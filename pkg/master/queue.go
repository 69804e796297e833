package master

import (
	"errors"
	"sync"
)

type pollState int

const (
	pollTask pollState = iota
	pollTryAgain
	pollEnd
	pollFailed
)

func (p pollState) String() string {
	switch p {
	case pollTask:
		return "task"
	case pollTryAgain:
		return "try-again"
	case pollEnd:
		return "end"
	default:
		return "failed"
	}
}

// taskQueue serializes the calls to the task provider and keeps track of the
// tasks handed out whose results were not consumed yet.
type taskQueue[T any] struct {
	mu        sync.Mutex
	provide   TaskFunc[T]
	exhausted bool
	inflight  int
}

func newTaskQueue[T any](provide TaskFunc[T]) *taskQueue[T] {
	return &taskQueue[T]{provide: provide}
}

// next calls the provider once and classifies its answer.
func (q *taskQueue[T]) next() (T, pollState, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var task T
	if q.exhausted {
		return task, pollEnd, nil
	}

	err := safely("task provider", func() error {
		var err error
		task, err = q.provide()
		return err
	})

	switch {
	case err == nil:
		q.inflight++
		return task, pollTask, nil
	case errors.Is(err, ErrTryAgain):
		var zero T
		if q.inflight == 0 {
			q.exhausted = true
			return zero, pollFailed, ErrStalled
		}
		return zero, pollTryAgain, nil
	case errors.Is(err, ErrNoMoreTasks):
		var zero T
		q.exhausted = true
		return zero, pollEnd, nil
	default:
		var zero T
		q.exhausted = true
		return zero, pollFailed, err
	}
}

// done marks one task handed out by next as finished.
func (q *taskQueue[T]) done() {
	q.mu.Lock()
	q.inflight--
	q.mu.Unlock()
}

// stop prevents any further call to the provider.
func (q *taskQueue[T]) stop() {
	q.mu.Lock()
	q.exhausted = true
	q.mu.Unlock()
}
