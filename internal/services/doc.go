// Package services implements the business logic layer of taskmaster.
//
// RunService sits between the HTTP handlers (or the CLI) and the run ledger.
// It turns a request into a workload, executes it on a fresh master.Master in
// the background and records the outcome.
//
// # Service Dependency Graph
//
//	Handlers / CLI
//	    │
//	    ▼
//	RunService ──► Store (run ledger)
//	    │
//	    ├──► Scheduler (bounded number of computations at once)
//	    │
//	    └──► master.Master per run ──► workload (sum, row median)
//
// # Run Lifecycle
//
//	               StartSum / StartMedian
//	                        │
//	                        ▼
//	                 ┌────────────┐
//	                 │  running   │  recorded before the call returns,
//	                 └─────┬──────┘  queued until a scheduler slot frees
//	                       │
//	     ┌─────────────────┼────────────────────┐
//	     ▼                 ▼                    ▼
//	┌───────────┐   ┌────────────┐       ┌────────────┐
//	│ completed │   │ cancelled  │       │   failed   │
//	└───────────┘   └────────────┘       └────────────┘
//	 nil error       Cancel / Close       fatal worker or
//	                 (ErrCancelled)       provider error
//
// Status mapping from ManageTasks:
//   - nil → completed, Result holds the workload result
//   - error matching master.ErrCancelled → cancelled
//   - any other error → failed
//
// A run cancelled while it waits for a slot never executes. The scheduler
// answers it with context.Canceled and the tracker records it as cancelled.
//
// Key behaviors:
//   - Every run gets its own master; masters are closed when the run ends
//   - Worker count 0 resolves to the engine default, then to one per CPU; the
//     ledger stores the resolved count
//   - Cancel on a finished run returns RunNotActiveError, on an unknown id
//     ResourceNotFoundError
//   - Close cancels everything and waits until every run is recorded
//   - RecoverInterrupted marks runs left running by a dead process as failed
//
// Usage:
//
//	srv := services.NewRunService(store, cfg.Engine, cfg.Runs.MaxConcurrent, metrics)
//	defer srv.Close()
//
//	run, err := srv.StartSum(ctx, services.SumParams{Size: 1 << 20, Chunk: 4096})
//	final, err := srv.Wait(ctx, run.ID)
//
// # Thread Safety
//
// The set of active runs is protected by a mutex. Results flow back through
// scheduler futures, one tracking goroutine per run.
package services
