// Package master implements a blocking master/worker engine for chunked
// parallel computations.
//
// A computation is described by three callbacks: a task provider, a worker
// function and a result consumer. The master pulls tasks from the provider,
// runs the worker function on them in a fixed pool of worker goroutines and
// hands every result to the consumer. ManageTasks returns when the provider is
// exhausted and every result has been consumed, or when the computation is
// cancelled.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                              Master                                 │
//	│                                                                     │
//	│   ┌────────────────────┐                   ┌────────────────────┐   │
//	│   │     taskQueue      │                   │     resultSink     │   │
//	│   │  (producer lock)   │                   │  (consumer lock)   │   │
//	│   │   ProvideTask()    │                   │  ConsumeResult()   │   │
//	│   └─────────┬──────────┘                   └──────────▲─────────┘   │
//	│             │ next()                          submit()│             │
//	│             ▼                                         │             │
//	│  ┌──────────────┐      ┌──────────────┐      ┌──────────────┐       │
//	│  │   Worker 0   │      │   Worker 1   │      │   Worker N   │       │
//	│  │ Work(t, data)│      │ Work(t, data)│      │ Work(t, data)│       │
//	│  └──────────────┘      └──────────────┘      └──────────────┘       │
//	│                                                                     │
//	│                   ManageTasks(ctx) blocks here                      │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Core Components
//
// taskQueue:
//   - Serializes the calls to the task provider (it need not be reentrant)
//   - Classifies the answer: task, try-again, end of tasks or failure
//   - Counts the tasks handed out but not consumed yet
//
// resultSink:
//   - Serializes the calls to the result consumer
//   - The only synchronization point for the state the consumer accumulates into
//
// worker:
//   - One goroutine per worker, alive from CreateWorkers until Close
//   - Owns its private data, created and destroyed in the worker goroutine
//   - Runs the work loop for each ManageTasks call it takes part in
//
// Master:
//   - Owns the callbacks, the workers and the cancellation of the current run
//   - Blocks the caller of ManageTasks until every worker is done
//
// # Worker Loop
//
//	┌──────┐   data ok   ┌─────────┐  task   ┌───────────┐  result  ┌────────────┐
//	│ Init │ ──────────► │ Polling │ ──────► │ Executing │ ───────► │ Submitting │
//	└──────┘             └─────────┘         └───────────┘          └─────┬──────┘
//	                       │  ▲   ▲                                       │
//	          end/cancel   │  │   └───────────────────────────────────────┘
//	                       │  └── try again (exponential backoff)
//	                       ▼
//	                    ┌──────┐
//	                    │ Done │
//	                    └──────┘
//
// Cancellation is only checked when entering Polling. A task obtained from the
// provider always goes through the worker function and the consumer, so the
// consumer can rely on seeing every task it was given, even when the
// computation is cancelled.
//
// # Task Provider Contract
//
// The provider returns one of:
//
//	task, nil              a task for the next worker
//	_, ErrTryAgain         more tasks come once some running task finishes
//	_, ErrNoMoreTasks      the work is exhausted
//	_, err                 a fatal error, the computation is aborted
//
// Once the provider returns ErrNoMoreTasks it is not called again during the
// same computation. Returning ErrTryAgain while no task is in flight can never
// make progress; the computation is aborted with ErrStalled.
//
// # Ordering
//
// Calls to the provider are totally ordered, and so are calls to the consumer.
// Results are consumed in completion order, not in the order the tasks were
// provided. Computations depending on the order must tag the tasks with their
// position:
//
//	type band struct{ from, to int }
//
// # Errors and Cancellation
//
// ManageTasks returns:
//
//	nil                    tasks exhausted, every result consumed
//	ErrCancelled (wrapped) ctx cancelled or Close called; errors.Is also matches
//	                       the cancellation cause, e.g. context.Canceled
//	*WorkerError           first failure of the worker function, the provider
//	                       or the consumer (panics are recovered into errors)
//	ErrBusy                another ManageTasks call is in flight
//	*ConfigError           a mandatory callback is missing
//
// The first fatal error cancels the other workers; later errors are logged
// and dropped.
//
// # Lifecycle
//
//	m := master.New[task, result, *scratch](master.WithName("median"))
//	defer m.Close()
//
//	_ = m.SetWorkerData(newScratch, freeScratch)
//	_ = m.SetJob(...)
//	if err := m.CreateWorkers(0); err != nil { // one per processor
//	    return err
//	}
//	if err := m.ManageTasks(ctx); err != nil {
//	    return err
//	}
//
// The workers and their data survive between ManageTasks calls, so staged
// computations run one ManageTasks per stage on the same master, changing the
// callbacks in between with the setters. Close retires the workers; it waits
// for a computation in flight after cancelling it.
//
// For one-off computations Run does all of the above:
//
//	err := master.Run(ctx, 0, master.Job[task, result, struct{}]{
//	    Work:          work,
//	    ProvideTask:   provide,
//	    ConsumeResult: consume,
//	})
//
// # Serial Master
//
// NewSerial returns a master doing all the work in the goroutine calling
// ManageTasks, with a single worker data. It accepts the same calls and is
// handy for testing or for running the same code with no parallelism at all.
package master
