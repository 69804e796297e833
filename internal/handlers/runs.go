package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	v1 "github.com/kubev2v/taskmaster/api/v1"
	"github.com/kubev2v/taskmaster/internal/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// CreateSumRun starts a range sum
// (POST /runs/sum)
func (h *Handler) CreateSumRun(c *gin.Context) {
	var req v1.SumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
		return
	}

	run, err := h.runSrv.StartSum(c.Request.Context(), req.ToParams())
	if err != nil {
		writeError(c, "failed to start sum run", err)
		return
	}

	c.JSON(http.StatusAccepted, v1.NewRunFromModel(*run))
}

// CreateMedianRun starts a row median filter over a random field
// (POST /runs/median)
func (h *Handler) CreateMedianRun(c *gin.Context) {
	var req v1.MedianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
		return
	}

	run, err := h.runSrv.StartMedian(c.Request.Context(), req.ToParams())
	if err != nil {
		writeError(c, "failed to start median run", err)
		return
	}

	c.JSON(http.StatusAccepted, v1.NewRunFromModel(*run))
}

// GetRuns returns the run ledger with filtering and pagination
// (GET /runs)
func (h *Handler) GetRuns(c *gin.Context) {
	var params v1.GetRunsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
		return
	}

	// Parse pagination
	page := 1
	if params.Page != nil && *params.Page > 0 {
		page = *params.Page
	}
	pageSize := defaultPageSize
	if params.PageSize != nil && *params.PageSize > 0 {
		pageSize = min(*params.PageSize, maxPageSize)
	}

	statuses, err := v1.ParseRunStatuses(params.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
		return
	}
	workloads, err := v1.ParseWorkloads(params.Workload)
	if err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
		return
	}

	result, err := h.runSrv.List(c.Request.Context(), services.RunListParams{
		Statuses:  statuses,
		Workloads: workloads,
		Limit:     uint64(pageSize),
		Offset:    uint64((page - 1) * pageSize),
	})
	if err != nil {
		writeError(c, "failed to list runs", err)
		return
	}

	// Calculate page count
	pageCount := (result.Total + pageSize - 1) / pageSize
	if pageCount == 0 {
		pageCount = 1
	}

	apiRuns := make([]v1.Run, 0, len(result.Runs))
	for _, run := range result.Runs {
		apiRuns = append(apiRuns, v1.NewRunFromModel(run))
	}

	c.JSON(http.StatusOK, v1.RunListResponse{
		Page:      page,
		PageCount: pageCount,
		Total:     result.Total,
		Runs:      apiRuns,
	})
}

// GetRun returns one run
// (GET /runs/{id})
func (h *Handler) GetRun(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	run, err := h.runSrv.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, "failed to get run", err)
		return
	}

	c.JSON(http.StatusOK, v1.NewRunFromModel(*run))
}

// CancelRun cancels a running computation
// (DELETE /runs/{id})
func (h *Handler) CancelRun(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.runSrv.Cancel(c.Request.Context(), id); err != nil {
		writeError(c, "failed to cancel run", err)
		return
	}

	c.Status(http.StatusAccepted)
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, v1.Error{Error: "invalid run id"})
		return uuid.Nil, false
	}
	return id, true
}
