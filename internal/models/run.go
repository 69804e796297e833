package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a computation.
type RunStatus string

const (
	// RunStatusRunning - queued or executing
	RunStatusRunning RunStatus = "running"
	// RunStatusCompleted - every task was processed
	RunStatusCompleted RunStatus = "completed"
	// RunStatusCancelled - stopped on request before the end of the task stream
	RunStatusCancelled RunStatus = "cancelled"
	// RunStatusFailed - aborted by a fatal error
	RunStatusFailed RunStatus = "failed"
)

func (s RunStatus) Value() string {
	return string(s)
}

// Terminal reports whether the run can no longer change.
func (s RunStatus) Terminal() bool {
	return s != RunStatusRunning
}

func ParseRunStatus(s string) (RunStatus, error) {
	switch RunStatus(s) {
	case RunStatusRunning, RunStatusCompleted, RunStatusCancelled, RunStatusFailed:
		return RunStatus(s), nil
	default:
		return "", fmt.Errorf("invalid run status: %s", s)
	}
}

// Workload names the computation a run executes.
type Workload string

const (
	WorkloadSum       Workload = "sum"
	WorkloadRowMedian Workload = "median"
)

func ParseWorkload(s string) (Workload, error) {
	switch Workload(s) {
	case WorkloadSum, WorkloadRowMedian:
		return Workload(s), nil
	default:
		return "", fmt.Errorf("invalid workload: %s", s)
	}
}

// Run is one computation recorded in the ledger.
type Run struct {
	ID         uuid.UUID
	Workload   Workload
	Workers    int
	ChunkSize  int
	Size       int64
	Parameters string
	Status     RunStatus
	Result     string
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Duration is the wall time of a finished run, or the time elapsed so far.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
