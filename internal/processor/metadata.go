package processor

import (
	"bytes"
	"fmt"
	"math"

	"github.com/bytedance/sonic"

	"pixelflow/pkg/model"
)

type rawMetadata struct {
	Width          *int     `json:"width"`
	Height         *int     `json:"height"`
	Channels       *int     `json:"channels"`
	ProcessingTime *float64 `json:"processingTime"`
	Speedup        *float64 `json:"speedup"`
}

// ParseMetadata decodes the processor's stdout. The result is expected on a
// single line; when the processor prints diagnostics first, the last
// non-empty line is used.
func ParseMetadata(stdout []byte) (model.Metadata, error) {
	line := lastLine(stdout)
	if len(line) == 0 {
		return model.Metadata{}, fmt.Errorf("empty processor output")
	}

	var raw rawMetadata
	if err := sonic.Unmarshal(line, &raw); err != nil {
		return model.Metadata{}, fmt.Errorf("malformed processor output: %w", err)
	}

	var missing []string
	if raw.Width == nil {
		missing = append(missing, "width")
	}
	if raw.Height == nil {
		missing = append(missing, "height")
	}
	if raw.ProcessingTime == nil {
		missing = append(missing, "processingTime")
	}
	if raw.Speedup == nil {
		missing = append(missing, "speedup")
	}
	if len(missing) > 0 {
		return model.Metadata{}, fmt.Errorf("processor output missing fields %v", missing)
	}

	md := model.Metadata{
		Width:          *raw.Width,
		Height:         *raw.Height,
		ProcessingTime: *raw.ProcessingTime,
		Speedup:        *raw.Speedup,
	}
	if raw.Channels != nil {
		md.Channels = *raw.Channels
	}
	return md, validate(md)
}

func validate(md model.Metadata) error {
	if md.Width <= 0 || md.Height <= 0 {
		return fmt.Errorf("invalid dimensions %s", md.ImageSize())
	}
	if md.Channels < 0 {
		return fmt.Errorf("invalid channel count %d", md.Channels)
	}
	if !finiteNonNegative(md.ProcessingTime) {
		return fmt.Errorf("invalid processing time %v", md.ProcessingTime)
	}
	if !finiteNonNegative(md.Speedup) {
		return fmt.Errorf("invalid speedup %v", md.Speedup)
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

func lastLine(out []byte) []byte {
	lines := bytes.Split(bytes.TrimSpace(out), []byte("\n"))
	for i := len(lines) - 1; i >= 0; i-- {
		if l := bytes.TrimSpace(lines[i]); len(l) > 0 {
			return l
		}
	}
	return nil
}
