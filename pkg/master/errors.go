package master

import (
	"errors"
	"fmt"
)

// Sentinel errors for master operations
var (
	// ErrTryAgain is returned by a TaskFunc when no task is ready yet but more
	// will be once some of the tasks in flight finish.
	ErrTryAgain = errors.New("no task ready, try again")

	// ErrNoMoreTasks is returned by a TaskFunc once the work is exhausted.
	ErrNoMoreTasks = errors.New("no more tasks")

	// ErrBusy indicates the master is already managing tasks
	ErrBusy = errors.New("master is already managing tasks")

	// ErrClosed indicates the master has been torn down
	ErrClosed = errors.New("master is closed")

	// ErrCancelled indicates the computation was cancelled before the tasks were exhausted
	ErrCancelled = errors.New("task management cancelled")

	// ErrNoWorkers indicates ManageTasks was called before CreateWorkers
	ErrNoWorkers = errors.New("master has no workers")

	// ErrStalled indicates the task provider asked to try again while nothing was in flight
	ErrStalled = errors.New("try-again task obtained with no active tasks")

	// ErrMissingCallback indicates a mandatory callback was not set
	ErrMissingCallback = errors.New("mandatory callback not set")
)

// ConfigError is returned when the master is not configured well enough to run.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid master configuration: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid master configuration: %s", e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newMissingCallbackError(name string) *ConfigError {
	return &ConfigError{Reason: name, Err: ErrMissingCallback}
}

// WorkerDataError is returned by CreateWorkers when the worker data factory fails.
type WorkerDataError struct {
	Worker int
	Err    error
}

func (e *WorkerDataError) Error() string {
	return fmt.Sprintf("failed to create data for worker %d: %v", e.Worker, e.Err)
}

func (e *WorkerDataError) Unwrap() error {
	return e.Err
}

// WorkerError is the first fatal error raised while managing tasks, either by
// the worker function, the task provider or the result consumer.
type WorkerError struct {
	Worker int
	Err    error
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker %d failed: %v", e.Worker, e.Err)
}

func (e *WorkerError) Unwrap() error {
	return e.Err
}

// IsCancelled reports whether err is the cancelled status returned by ManageTasks.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

func newCancelledError(cause error) error {
	if cause == nil {
		return ErrCancelled
	}
	return fmt.Errorf("%w: %w", ErrCancelled, cause)
}
