package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	v1 "github.com/kubev2v/taskmaster/api/v1"
	"github.com/kubev2v/taskmaster/internal/report"
	"github.com/kubev2v/taskmaster/internal/services"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run ledger",
	}
	cmd.AddCommand(newRunsListCmd(a), newRunsExportCmd(a))
	return cmd
}

type ledgerFilter struct {
	statuses  []string
	workloads []string
}

func (f *ledgerFilter) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "keep runs with these statuses")
	cmd.Flags().StringSliceVar(&f.workloads, "workload", nil, "keep runs of these workloads")
}

func (f *ledgerFilter) params() (services.RunListParams, error) {
	statuses, err := v1.ParseRunStatuses(f.statuses)
	if err != nil {
		return services.RunListParams{}, err
	}
	workloads, err := v1.ParseWorkloads(f.workloads)
	if err != nil {
		return services.RunListParams{}, err
	}
	return services.RunListParams{Statuses: statuses, Workloads: workloads}, nil
}

func newRunsListCmd(a *app) *cobra.Command {
	var (
		filter ledgerFilter
		limit  uint64
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := filter.params()
			if err != nil {
				return err
			}
			params.Limit = limit

			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			result, err := sess.runs.List(cmd.Context(), params)
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tWORKLOAD\tSTATUS\tWORKERS\tSTARTED\tDURATION\tRESULT")
			for _, run := range result.Runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					run.ID,
					run.Workload,
					statusColor(run.Status).Sprint(run.Status),
					run.Workers,
					run.StartedAt.Local().Format(time.DateTime),
					run.Duration().Round(time.Millisecond),
					run.Result,
				)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Printf("%d of %d runs\n", len(result.Runs), result.Total)
			return nil
		},
	}

	filter.register(cmd)
	cmd.Flags().Uint64Var(&limit, "limit", 20, "maximum number of runs, 0 for all")
	return cmd
}

func newRunsExportCmd(a *app) *cobra.Command {
	var (
		filter ledgerFilter
		out    string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the run ledger as an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			params, err := filter.params()
			if err != nil {
				return err
			}

			sess, err := a.openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer sess.Close()

			result, err := sess.runs.List(cmd.Context(), params)
			if err != nil {
				return err
			}

			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := report.Write(f, result.Runs); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Printf("exported %d runs to %s\n", len(result.Runs), out)
			return nil
		},
	}

	filter.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "runs.xlsx", "output file")
	return cmd
}
