package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/load"

	"pixelflow/api"
	"pixelflow/internal/logging"
)

// HealthHandler godoc
//
// @Summary Service health
// @Tags health
// @Produce json
// @Success 200 {object} api.HealthResponse
// @Failure 503 {object} api.HealthResponse
// @Router /health [get]
func (s *Server) HealthHandler(ctx *gin.Context) {
	stats := s.orchestrator.Stats()
	resp := api.HealthResponse{
		Status:    "ok",
		Capacity:  stats.Capacity,
		InFlight:  stats.InFlight,
		Workspace: api.WorkspaceHealth{Dir: s.workspaceDir, Active: stats.ActiveWorkspaces},
		Host:      hostHealth(ctx, logging.BuildLoggerFromCtx(ctx)),
	}

	status := http.StatusOK
	if s.probe != nil {
		resp.Processor.Path = s.probe.Path()
		if err := s.probe.Available(); err != nil {
			resp.Status = "degraded"
			resp.Processor.Error = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			resp.Processor.Available = true
		}
	}

	ctx.JSON(status, resp)
}

func hostHealth(ctx *gin.Context, logger *logging.Logger) api.HostHealth {
	var host api.HostHealth
	reqCtx := ctx.Request.Context()

	if n, err := cpu.CountsWithContext(reqCtx, true); err == nil {
		host.LogicalCPUs = n
	} else {
		logger.WithError(err).Debug("Could not read logical CPU count")
	}
	if n, err := cpu.CountsWithContext(reqCtx, false); err == nil {
		host.PhysicalCPUs = n
	} else {
		logger.WithError(err).Debug("Could not read physical CPU count")
	}
	if avg, err := load.AvgWithContext(reqCtx); err == nil {
		host.Load1 = avg.Load1
	} else {
		logger.WithError(err).Debug("Could not read load average")
	}
	return host
}
