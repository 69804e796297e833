// Package report exports the run ledger as a spreadsheet.
package report

import (
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kubev2v/taskmaster/internal/models"
)

const (
	runsSheet    = "Runs"
	summarySheet = "Summary"
)

var runsHeader = []any{
	"ID", "Workload", "Status", "Workers", "Chunk size", "Size",
	"Parameters", "Result", "Error", "Started at", "Finished at", "Duration (ms)",
}

var statuses = []models.RunStatus{
	models.RunStatusRunning,
	models.RunStatusCompleted,
	models.RunStatusCancelled,
	models.RunStatusFailed,
}

// Write renders runs in a workbook with a Runs sheet, one row per run, and a
// Summary sheet counting runs per workload and status.
func Write(w io.Writer, runs []models.Run) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", runsSheet); err != nil {
		return err
	}
	if err := writeRuns(f, runs); err != nil {
		return fmt.Errorf("failed to write runs sheet: %w", err)
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}
	if err := writeSummary(f, runs); err != nil {
		return fmt.Errorf("failed to write summary sheet: %w", err)
	}

	_, err := f.WriteTo(w)
	return err
}

func writeRuns(f *excelize.File, runs []models.Run) error {
	if err := f.SetSheetRow(runsSheet, "A1", &runsHeader); err != nil {
		return err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(runsSheet, 1, 1, bold); err != nil {
		return err
	}

	for i, run := range runs {
		finished := ""
		if run.FinishedAt != nil {
			finished = run.FinishedAt.UTC().Format(time.RFC3339)
		}
		row := []any{
			run.ID.String(),
			string(run.Workload),
			string(run.Status),
			run.Workers,
			run.ChunkSize,
			run.Size,
			run.Parameters,
			run.Result,
			run.Error,
			run.StartedAt.UTC().Format(time.RFC3339),
			finished,
			run.Duration().Milliseconds(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(runsSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.AutoFilter(runsSheet, fmt.Sprintf("A1:L%d", len(runs)+1), nil)
}

func writeSummary(f *excelize.File, runs []models.Run) error {
	counts := make(map[models.Workload]map[models.RunStatus]int)
	for _, run := range runs {
		if counts[run.Workload] == nil {
			counts[run.Workload] = make(map[models.RunStatus]int)
		}
		counts[run.Workload][run.Status]++
	}

	header := []any{"Workload"}
	for _, st := range statuses {
		header = append(header, string(st))
	}
	header = append(header, "total")
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return err
	}

	workloads := make([]models.Workload, 0, len(counts))
	for w := range counts {
		workloads = append(workloads, w)
	}
	slices.Sort(workloads)

	for i, w := range workloads {
		row := []any{string(w)}
		total := 0
		for _, st := range statuses {
			row = append(row, counts[w][st])
			total += counts[w][st]
		}
		row = append(row, total)
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
