package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	flatbuffers "github.com/google/flatbuffers/go"

	"pixelflow/api"
	"pixelflow/api/pixelflow/ProcessImage"
	perrors "pixelflow/internal/errors"
	"pixelflow/internal/logging"
	"pixelflow/pkg/model"
)

const mimeFlatbuffers = "application/octet-stream"

// ProcessImageHandler godoc
//
// @Summary Process an image
// @Description Applies one operation to the uploaded image with the external processor. The success response format is dictated by the Accept header, but all errors are returned as JSON
// @Tags image
// @Accept multipart/form-data
// @Produce json,octet-stream
// @Param image formData file true "Image to process (max 10 MiB)"
// @Param operation formData string true "Operation to apply" Enums(flip, rotate, grayscale)
// @Param mode formData string true "Execution mode" Enums(serial, parallel)
// @Success 200 {object} api.ProcessImageResponse
// @Failure 400 {object} api.Error
// @Failure 413 {object} api.Error
// @Failure 500 {object} api.Error
// @Router /process-image [post]
func (s *Server) ProcessImageHandler(ctx *gin.Context) {
	logger := logging.BuildLoggerFromCtx(ctx)
	logger.Debug("Processing image request")

	imageBytes, uploadErr := readImageUpload(ctx, s.maxUploadBytes)
	if uploadErr != nil {
		logger.WithError(uploadErr).Warn("Rejected image upload")
		ctx.AbortWithStatusJSON(uploadErr.status, uploadErr.body)
		return
	}

	operation, err := model.ParseOperation(ctx.PostForm("operation"))
	if err != nil {
		logger.WithError(err).Warn("Rejected request")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errInvalidOperation)
		return
	}
	mode, err := model.ParseMode(ctx.PostForm("mode"))
	if err != nil {
		logger.WithError(err).Warn("Rejected request")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, errInvalidMode)
		return
	}

	logger = logger.With("operation", operation, "mode", mode)
	result, err := s.orchestrator.Process(ctx.Request.Context(), model.ProcessingRequest{
		ImageBytes: imageBytes,
		Operation:  operation,
		Mode:       mode,
	})
	if err != nil {
		handleOrchestrationError(ctx, logger, err, errProcessing)
		return
	}

	mime, ok := imageMIME(result.OutputBytes)
	if !ok {
		logger.With("detected_mime", mime, "output_size", len(result.OutputBytes)).Error("Processor output is not an image")
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, errProcessing)
		return
	}

	logger.With("stats", toHumanizedMetadata(result)).Info("Image processing was successful")

	if ctx.NegotiateFormat(gin.MIMEJSON, mimeFlatbuffers) == mimeFlatbuffers {
		ctx.Data(http.StatusOK, mimeFlatbuffers, buildFlatbuffersResponse(result, mime))
		return
	}

	ctx.JSON(http.StatusOK, api.ProcessImageResponse{
		ProcessedImage: dataURL(result.OutputBytes),
		Metadata:       result.Metadata,
	})
}

func buildFlatbuffersResponse(result *model.ProcessingResult, mime string) []byte {
	builder := flatbuffers.NewBuilder(len(result.OutputBytes) + 128)

	imageOffset := builder.CreateByteVector(result.OutputBytes)
	mimeOffset := builder.CreateString(mime)

	ProcessImage.ProcessImageResponseStart(builder)
	ProcessImage.ProcessImageResponseAddProcessedImage(builder, imageOffset)
	ProcessImage.ProcessImageResponseAddMimeType(builder, mimeOffset)
	ProcessImage.ProcessImageResponseAddWidth(builder, int32(result.Metadata.Width))
	ProcessImage.ProcessImageResponseAddHeight(builder, int32(result.Metadata.Height))
	ProcessImage.ProcessImageResponseAddProcessingTime(builder, result.Metadata.ProcessingTime)
	ProcessImage.ProcessImageResponseAddSpeedup(builder, result.Metadata.Speedup)
	builder.Finish(ProcessImage.ProcessImageResponseEnd(builder))

	return builder.FinishedBytes()
}

// handleOrchestrationError logs the cause and answers with a generic body so
// no internal detail reaches the caller.
func handleOrchestrationError(ctx *gin.Context, logger *logging.Logger, err error, body api.Error) {
	if perrors.IsKind(err, perrors.KindValidation) {
		logger.WithError(err).Warn("Rejected request")
		ctx.AbortWithStatusJSON(http.StatusBadRequest, api.Error{Code: "invalid_request", Error: "Invalid request"})
		return
	}
	if ctx.Request.Context().Err() != nil {
		logger.WithError(err).Warn("Client went away before processing finished")
	} else {
		logger.WithError(err).With("kind", perrors.KindOf(err)).Error("Processing failed")
	}
	ctx.AbortWithStatusJSON(http.StatusInternalServerError, body)
}
