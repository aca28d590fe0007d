package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pixelflow/api"
	"pixelflow/internal/logging"
	"pixelflow/pkg/model"
)

// DemoHandler godoc
//
// @Summary Serial versus parallel benchmark
// @Description Runs flip, rotate and grayscale in serial and parallel mode, one invocation at a time, and compares the timings. Fails as a whole when any invocation fails.
// @Tags image
// @Accept multipart/form-data
// @Produce json
// @Param image formData file true "Image to benchmark with (max 10 MiB)"
// @Success 200 {object} model.DemoReport
// @Failure 400 {object} api.Error
// @Failure 413 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /demo [post]
func (s *Server) DemoHandler(ctx *gin.Context) {
	logger := logging.BuildLoggerFromCtx(ctx)
	logger.Debug("Processing demo request")

	imageBytes, uploadErr := readImageUpload(ctx, s.maxUploadBytes)
	if uploadErr != nil {
		logger.WithError(uploadErr).Warn("Rejected image upload")
		ctx.AbortWithStatusJSON(uploadErr.status, uploadErr.body)
		return
	}

	report, err := s.orchestrator.Demo(ctx.Request.Context(), imageBytes, func(done, total int, result *model.ProcessingResult) {
		logger.Debug("Demo step finished", "done", done, "total", total, "operation", result.Operation, "mode", result.Mode)
	})
	if err != nil {
		handleOrchestrationError(ctx, logger, err, errDemo)
		return
	}

	logger.With("image_size", report.ImageSize, "stats", toHumanizedReport(report)).Info("Demo was successful")
	ctx.JSON(http.StatusOK, api.DemoResponse(*report))
}
