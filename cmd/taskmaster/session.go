package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/kubev2v/taskmaster/internal/models"
	"github.com/kubev2v/taskmaster/internal/services"
	"github.com/kubev2v/taskmaster/internal/store"
	"github.com/kubev2v/taskmaster/internal/store/migrations"
	"github.com/kubev2v/taskmaster/pkg/master"
)

// session is the wiring shared by the commands touching the ledger.
type session struct {
	store    *store.Store
	runs     *services.RunService
	registry *prometheus.Registry
}

func (a *app) openSession(ctx context.Context) (*session, error) {
	db, err := store.NewDBInFolder(a.cfg.DataFolder)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate the ledger: %w", err)
	}
	st := store.NewStore(db)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := master.NewMetrics("", registry)
	if err != nil {
		st.Close()
		return nil, err
	}

	runs := services.NewRunService(st, a.cfg.Engine, a.cfg.Runs.MaxConcurrent, metrics)
	if err := runs.RecoverInterrupted(ctx); err != nil {
		runs.Close()
		st.Close()
		return nil, err
	}

	return &session{store: st, runs: runs, registry: registry}, nil
}

func (r *session) Close() {
	r.runs.Close()
	if err := r.store.Close(); err != nil {
		zap.S().Named("cli").Warnw("failed to close the ledger", "error", err)
	}
}

// await waits for the run, cancelling it when ctx is done, and prints it.
func (r *session) await(ctx context.Context, id uuid.UUID) error {
	stop := context.AfterFunc(ctx, func() {
		if err := r.runs.Cancel(context.Background(), id); err != nil {
			zap.S().Named("cli").Debugw("cancel after interrupt", "run", id, "error", err)
		}
	})
	defer stop()

	run, err := r.runs.Wait(context.WithoutCancel(ctx), id)
	if err != nil {
		return err
	}
	printRun(run)
	if run.Status == models.RunStatusFailed {
		return fmt.Errorf("run %s failed: %s", run.ID, run.Error)
	}
	return nil
}

func statusColor(st models.RunStatus) *color.Color {
	switch st {
	case models.RunStatusCompleted:
		return color.New(color.FgGreen, color.Bold)
	case models.RunStatusCancelled:
		return color.New(color.FgYellow, color.Bold)
	case models.RunStatusFailed:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgCyan)
	}
}

func printRun(run *models.Run) {
	label := color.New(color.Faint).SprintFunc()

	fmt.Printf("%s %s\n", label("run:     "), run.ID)
	fmt.Printf("%s %s (%s)\n", label("workload:"), run.Workload, run.Parameters)
	fmt.Printf("%s %s\n", label("status:  "), statusColor(run.Status).Sprint(run.Status))
	fmt.Printf("%s %d\n", label("workers: "), run.Workers)
	fmt.Printf("%s %s\n", label("duration:"), run.Duration().Round(time.Microsecond))
	if run.Result != "" {
		fmt.Printf("%s %s\n", label("result:  "), color.New(color.Bold).Sprint(run.Result))
	}
	if run.Error != "" {
		fmt.Printf("%s %s\n", label("error:   "), color.RedString(run.Error))
	}
}
