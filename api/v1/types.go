package v1

import "time"

// Run is the API representation of a computation.
type Run struct {
	Id         string     `json:"id"`
	Workload   string     `json:"workload"`
	Workers    int        `json:"workers"`
	ChunkSize  int        `json:"chunkSize"`
	Size       int64      `json:"size"`
	Parameters string     `json:"parameters,omitempty"`
	Status     string     `json:"status"`
	Result     *string    `json:"result,omitempty"`
	Error      *string    `json:"error,omitempty"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	DurationMs int64      `json:"durationMs"`
}

type RunListResponse struct {
	Page      int   `json:"page"`
	PageCount int   `json:"pageCount"`
	Total     int   `json:"total"`
	Runs      []Run `json:"runs"`
}

type SumRequest struct {
	Size    uint64 `json:"size" binding:"required"`
	Chunk   uint64 `json:"chunk"`
	Workers int    `json:"workers" binding:"min=0"`
}

type MedianRequest struct {
	Rows    int    `json:"rows" binding:"required,min=1"`
	Cols    int    `json:"cols" binding:"required,min=1"`
	Radius  int    `json:"radius" binding:"min=0"`
	Band    int    `json:"band" binding:"min=0"`
	Seed    uint64 `json:"seed"`
	Workers int    `json:"workers" binding:"min=0"`
}

// GetRunsParams are the query parameters of GET /runs.
type GetRunsParams struct {
	Status   []string `form:"status"`
	Workload []string `form:"workload"`
	Page     *int     `form:"page"`
	PageSize *int     `form:"pageSize"`
}

type Error struct {
	Error string `json:"error"`
}
