// Package store implements the run ledger of taskmaster.
//
// Every computation started through the run service is recorded in a DuckDB
// table so its outcome stays queryable after it finished, from the HTTP API,
// the CLI or a spreadsheet export.
//
// # Architecture Overview
//
//	┌─────────────────────────────────────────────────────────────────┐
//	│                         Store (facade)                          │
//	├─────────────────────────────────────────────────────────────────┤
//	│                           RunStore                              │
//	│                              ▼                                  │
//	│                     QueryInterceptor (debug log)                │
//	│                              ▼                                  │
//	│                     runs, schema_migrations                     │
//	└─────────────────────────────────────────────────────────────────┘
//
// # Tables
//
// Created by the embedded migrations (internal/store/migrations/sql/):
//
//	┌────────────────────┬─────────────────────────────────────────────┐
//	│  Table             │  Purpose                                    │
//	├────────────────────┼─────────────────────────────────────────────┤
//	│  runs              │  One row per computation                    │
//	│  schema_migrations │  Migration version tracking                 │
//	└────────────────────┴─────────────────────────────────────────────┘
//
// Schema:
//
//	runs (
//	    id          VARCHAR PRIMARY KEY,   -- uuid
//	    workload    VARCHAR NOT NULL,      -- sum | median
//	    workers     INTEGER NOT NULL,
//	    chunk_size  INTEGER NOT NULL,
//	    size        BIGINT NOT NULL,
//	    parameters  VARCHAR,
//	    status      VARCHAR NOT NULL,      -- running | completed | cancelled | failed
//	    result      VARCHAR,
//	    error       VARCHAR,
//	    started_at  TIMESTAMP NOT NULL,
//	    finished_at TIMESTAMP              -- NULL while running
//	)
//
// # Initialization Flow
//
//	db, _ := store.NewDBInFolder(cfg.DataFolder)   // ":memory:" when empty
//	migrations.Run(ctx, db)
//	s := store.NewStore(db)
//	s.Runs().FailRunning(ctx, "interrupted")       // runs of a dead process
//
// # RunStore
//
// Methods:
//   - Create(ctx, run) → error
//   - Update(ctx, run) → error (workers, status, result, error, finished_at)
//   - Get(ctx, id) → *models.Run, ResourceNotFoundError when missing
//   - List(ctx, ...ListOption) → []models.Run, most recent first
//   - Count(ctx, ...ListOption) → int
//   - FailRunning(ctx, reason) → number of rows recovered
//
// List Options:
//
// List and Count use the functional options pattern. Each ListOption
// modifies the squirrel.SelectBuilder:
//
//	runs, err := s.Runs().List(ctx,
//	    store.ByWorkload(models.WorkloadSum),
//	    store.ByStatus(models.RunStatusCompleted, models.RunStatusFailed),
//	    store.WithLimit(20),
//	    store.WithOffset(40),
//	)
//
//   - ByStatus(statuses ...)    SQL: WHERE status IN (...)
//   - ByWorkload(workloads ...) SQL: WHERE workload IN (...)
//   - StartedAfter(t)           SQL: WHERE started_at >= t
//   - WithLimit(n)              SQL: LIMIT n
//   - WithOffset(n)             SQL: OFFSET n
//
// Empty filter lists are ignored. Count accepts the filter options only.
//
// # QueryInterceptor
//
// All statements go through a QueryInterceptor that debug-logs the query and
// its arguments under the "store" logger.
//
// Logged operations:
//   - QueryRowContext
//   - QueryContext
//   - ExecContext
package store
