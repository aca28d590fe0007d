package model

import (
	"fmt"

	perrors "pixelflow/internal/errors"
)

type ProcessingRequest struct {
	ImageBytes []byte
	Operation  Operation
	Mode       Mode
}

func (r ProcessingRequest) Validate() error {
	if len(r.ImageBytes) == 0 {
		return perrors.New(perrors.KindValidation, "model.validate-request", "image is empty")
	}
	if !r.Operation.Valid() {
		return perrors.Newf(perrors.KindValidation, "model.validate-request", "unrecognized operation %q", r.Operation)
	}
	if !r.Mode.Valid() {
		return perrors.Newf(perrors.KindValidation, "model.validate-request", "unrecognized mode %q", r.Mode)
	}
	return nil
}

// Metadata is what the external processor reports for one invocation.
// Speedup is 0 for serial invocations by the processor's convention.
type Metadata struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	Channels       int     `json:"channels,omitempty"`
	ProcessingTime float64 `json:"processingTime"`
	Speedup        float64 `json:"speedup"`
}

func (m Metadata) ImageSize() string {
	return fmt.Sprintf("%dx%d", m.Width, m.Height)
}

type ProcessingResult struct {
	Operation   Operation
	Mode        Mode
	Metadata    Metadata
	OutputBytes []byte
}
