package server

import (
	"time"

	"github.com/dustin/go-humanize"

	"pixelflow/pkg/model"
)

type humanizedMetadata struct {
	model.Metadata
	Size                string `json:"size"`
	ProcessingTimeHuman string `json:"processing_time_human"`
	OutputSizeHuman     string `json:"output_size_human"`
}

type humanizedComparison struct {
	Operation     model.Operation `json:"operation"`
	SerialHuman   string          `json:"serial_human"`
	ParallelHuman string          `json:"parallel_human"`
	Speedup       float64         `json:"speedup"`
}

func toHumanizedMetadata(result *model.ProcessingResult) humanizedMetadata {
	return humanizedMetadata{
		Metadata:            result.Metadata,
		Size:                result.Metadata.ImageSize(),
		ProcessingTimeHuman: secondsToDuration(result.Metadata.ProcessingTime).String(),
		OutputSizeHuman:     humanize.Bytes(uint64(len(result.OutputBytes))),
	}
}

func toHumanizedReport(report *model.DemoReport) []humanizedComparison {
	out := make([]humanizedComparison, 0, len(report.Results))
	for _, c := range report.Results {
		out = append(out, humanizedComparison{
			Operation:     c.Operation,
			SerialHuman:   secondsToDuration(c.SerialTime).String(),
			ParallelHuman: secondsToDuration(c.ParallelTime).String(),
			Speedup:       c.Speedup,
		})
	}
	return out
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
