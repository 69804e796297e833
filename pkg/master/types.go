package master

import (
	"fmt"
)

// WorkerFunc performs one task in a worker goroutine. data is the private
// WorkerContext of the worker running it.
type WorkerFunc[T, R, D any] func(task T, data D) (R, error)

// TaskFunc provides the next task. It returns ErrTryAgain when more tasks will
// be available once some of the current ones finish, and ErrNoMoreTasks when the
// work is exhausted. Any other error aborts the computation.
//
// Calls are serialized; the function need not be reentrant. Once it returns
// ErrNoMoreTasks it is not called again during the same computation.
type TaskFunc[T any] func() (T, error)

// ResultFunc consumes the result of one task. Calls are serialized.
type ResultFunc[R any] func(result R)

// CreateDataFunc builds the private data of one worker. It runs in the worker
// goroutine when the worker is created.
type CreateDataFunc[D any] func() (D, error)

// DestroyDataFunc releases the private data of one worker when it retires.
type DestroyDataFunc[D any] func(data D)

// Job bundles the callbacks of a computation.
type Job[T, R, D any] struct {
	Work          WorkerFunc[T, R, D]
	ProvideTask   TaskFunc[T]
	ConsumeResult ResultFunc[R]
	CreateData    CreateDataFunc[D]
	DestroyData   DestroyDataFunc[D]
}

func (j Job[T, R, D]) validate() error {
	if j.Work == nil {
		return newMissingCallbackError("worker function")
	}
	if j.ProvideTask == nil {
		return newMissingCallbackError("task provider")
	}
	if j.ConsumeResult == nil {
		return newMissingCallbackError("result consumer")
	}
	return j.validateData()
}

func (j Job[T, R, D]) validateData() error {
	if j.CreateData != nil && j.DestroyData == nil {
		return newMissingCallbackError("destroy worker data")
	}
	return nil
}

// safely runs fn converting a panic into an error.
func safely(what string, fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%s panicked: %v", what, rec)
		}
	}()
	return fn()
}
