package v1

import (
	"github.com/kubev2v/taskmaster/internal/models"
	"github.com/kubev2v/taskmaster/internal/services"
)

// NewRunFromModel converts a models.Run to an API Run.
func NewRunFromModel(run models.Run) Run {
	apiRun := Run{
		Id:         run.ID.String(),
		Workload:   string(run.Workload),
		Workers:    run.Workers,
		ChunkSize:  run.ChunkSize,
		Size:       run.Size,
		Parameters: run.Parameters,
		Status:     string(run.Status),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		DurationMs: run.Duration().Milliseconds(),
	}

	if run.Result != "" {
		apiRun.Result = &run.Result
	}
	if run.Error != "" {
		apiRun.Error = &run.Error
	}

	return apiRun
}

func (r SumRequest) ToParams() services.SumParams {
	return services.SumParams{
		Size:    r.Size,
		Chunk:   r.Chunk,
		Workers: r.Workers,
	}
}

func (r MedianRequest) ToParams() services.MedianParams {
	return services.MedianParams{
		Rows:    r.Rows,
		Cols:    r.Cols,
		Radius:  r.Radius,
		Band:    r.Band,
		Seed:    r.Seed,
		Workers: r.Workers,
	}
}

// ParseRunStatuses converts the status query values, rejecting unknown ones.
func ParseRunStatuses(values []string) ([]models.RunStatus, error) {
	statuses := make([]models.RunStatus, 0, len(values))
	for _, v := range values {
		st, err := models.ParseRunStatus(v)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// ParseWorkloads converts the workload query values, rejecting unknown ones.
func ParseWorkloads(values []string) ([]models.Workload, error) {
	workloads := make([]models.Workload, 0, len(values))
	for _, v := range values {
		w, err := models.ParseWorkload(v)
		if err != nil {
			return nil, err
		}
		workloads = append(workloads, w)
	}
	return workloads, nil
}
