package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	v1 "github.com/kubev2v/taskmaster/api/v1"
	"github.com/kubev2v/taskmaster/internal/services"
	srvErrors "github.com/kubev2v/taskmaster/pkg/errors"
)

type Handler struct {
	runSrv *services.RunService
}

func New(runSrv *services.RunService) *Handler {
	return &Handler{
		runSrv: runSrv,
	}
}

// RegisterHandlers mounts the API routes on router.
func RegisterHandlers(router gin.IRouter, h *Handler) {
	router.POST("/runs/sum", h.CreateSumRun)
	router.POST("/runs/median", h.CreateMedianRun)
	router.GET("/runs", h.GetRuns)
	router.GET("/runs/:id", h.GetRun)
	router.DELETE("/runs/:id", h.CancelRun)
}

// writeError maps service errors to HTTP status codes.
func writeError(c *gin.Context, msg string, err error) {
	switch {
	case srvErrors.IsResourceNotFoundError(err):
		c.JSON(http.StatusNotFound, v1.Error{Error: err.Error()})
	case srvErrors.IsRunNotActiveError(err):
		c.JSON(http.StatusConflict, v1.Error{Error: err.Error()})
	case srvErrors.IsInvalidParameterError(err):
		c.JSON(http.StatusBadRequest, v1.Error{Error: err.Error()})
	case srvErrors.IsServiceClosedError(err):
		c.JSON(http.StatusServiceUnavailable, v1.Error{Error: err.Error()})
	default:
		zap.S().Named("run_handler").Errorw(msg, "error", err)
		c.JSON(http.StatusInternalServerError, v1.Error{Error: msg})
	}
}
