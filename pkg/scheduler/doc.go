// Package scheduler runs whole computations in the background with futures.
//
// A Scheduler owns a fixed number of slots. Work submitted with AddWork waits
// in a FIFO queue until a slot is free, then runs in its own goroutine. The
// caller gets a Future right away and reads the single result from it.
//
// The run service uses it to bound how many computations execute at once:
// each computation already spreads over a pool of master workers, so letting
// every submitted run start immediately would oversubscribe the CPU.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────────┐
//	│                          Scheduler[T]                               │
//	│                                                                     │
//	│   AddWork(fn) ──► work chan ──► run() event loop                    │
//	│                                    │                                │
//	│                     ┌──────────────┼──────────────┐                 │
//	│                     ▼              ▼              ▼                 │
//	│              pending queue    finished chan    closing chan         │
//	│              [r1] [r2] ...    (slot released)  (Close)              │
//	│                     │                                               │
//	│                dispatch() ── idle > 0 ──► go execute(r)             │
//	│                                               │                     │
//	│                                               ▼                     │
//	│                                    Future.C() ◄── Result{Data, Err} │
//	└─────────────────────────────────────────────────────────────────────┘
//
// # Work Execution Flow
//
//  1. AddWork derives a cancellable context from the scheduler context
//     and hands the request to the event loop.
//  2. The loop queues the request and calls dispatch().
//  3. dispatch() pops requests while a slot is idle. A request whose
//     context is already done is answered with the context error and never
//     runs.
//  4. execute() calls fn(ctx), delivers the Result, and releases the slot
//     through the finished channel.
//
// The finished channel is buffered with one entry per slot so a completing
// work never blocks on a loop that is already shutting down.
//
// # Future Mechanism
//
//   - C() <-chan Result[T]: receives exactly one result
//   - Stop(): cancels the work context; the result is still delivered
//
//	future := sched.AddWork(func(ctx context.Context) (*models.Run, error) {
//	    return compute(ctx)
//	})
//
//	select {
//	case res := <-future.C():
//	    handle(res.Data, res.Err)
//	case <-ctx.Done():
//	    future.Stop()
//	}
//
// # Panic Recovery
//
// A panicking work is converted into an error result and the slot is
// returned to the pool.
//
// # Cancellation
//
//   - future.Stop() cancels one work
//   - scheduler.Close() cancels every work
//
// # Graceful Shutdown
//
// Close():
//
//  1. Cancels the scheduler context (all running work sees ctx.Done())
//  2. Signals the event loop
//  3. The loop answers every queued request with context.Canceled
//  4. The loop waits for running work and exits
//
// Close is idempotent. AddWork after Close returns a future already holding
// context.Canceled.
package scheduler
