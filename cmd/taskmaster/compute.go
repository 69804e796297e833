package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kubev2v/taskmaster/internal/services"
)

func newSumCmd(a *app) *cobra.Command {
	var p services.SumParams

	cmd := &cobra.Command{
		Use:   "sum",
		Short: "Sum the integers of [0, size) in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rt, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			run, err := rt.runs.StartSum(ctx, p)
			if err != nil {
				return err
			}
			return rt.await(ctx, run.ID)
		},
	}

	cmd.Flags().Uint64Var(&p.Size, "size", 1<<24, "numbers to add")
	cmd.Flags().Uint64Var(&p.Chunk, "chunk", 0, "numbers per task, 0 for the engine default")
	cmd.Flags().IntVar(&p.Workers, "workers", 0, "workers, 0 for the engine default")
	cmd.Flags().BoolVar(&p.Serial, "serial", false, "run every task in one goroutine")
	return cmd
}

func newMedianCmd(a *app) *cobra.Command {
	var p services.MedianParams

	cmd := &cobra.Command{
		Use:   "median",
		Short: "Apply a row median filter to a random field in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			rt, err := a.openSession(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			run, err := rt.runs.StartMedian(ctx, p)
			if err != nil {
				return err
			}
			return rt.await(ctx, run.ID)
		},
	}

	cmd.Flags().IntVar(&p.Rows, "rows", 1024, "field rows")
	cmd.Flags().IntVar(&p.Cols, "cols", 1024, "field columns")
	cmd.Flags().IntVar(&p.Radius, "radius", 3, "median window radius")
	cmd.Flags().IntVar(&p.Band, "band", 0, "rows per task, 0 for the default")
	cmd.Flags().Uint64Var(&p.Seed, "seed", 1, "random field seed")
	cmd.Flags().IntVar(&p.Workers, "workers", 0, "workers, 0 for the engine default")
	cmd.Flags().BoolVar(&p.Serial, "serial", false, "run every task in one goroutine")
	return cmd
}
