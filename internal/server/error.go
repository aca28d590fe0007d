package server

import "pixelflow/api"

var (
	errMissingImage     = api.Error{Code: "missing_image", Error: "An image file must be supplied in the image field"}
	errInvalidImage     = api.Error{Code: "invalid_image", Error: "Supplied file is not an image"}
	errInvalidRequest   = api.Error{Code: "invalid_request", Error: "Error reading multipart request body"}
	errInvalidOperation = api.Error{Code: "invalid_operation", Error: "operation must be one of flip, rotate, grayscale"}
	errInvalidMode      = api.Error{Code: "invalid_mode", Error: "mode must be one of serial, parallel"}
	errProcessing       = api.Error{Code: "processing_failed", Error: "Image processing failed"}
	errDemo             = api.Error{Code: "demo_failed", Error: "Demo processing failed"}
)
