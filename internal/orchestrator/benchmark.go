package orchestrator

import (
	"context"
	"fmt"

	perrors "pixelflow/internal/errors"
	"pixelflow/pkg/model"
)

type resultKey struct {
	op   model.Operation
	mode model.Mode
}

// Progress is called after each finished combination of the demo matrix.
type Progress func(done, total int, result *model.ProcessingResult)

// Demo runs every operation in both modes, one at a time and in matrix
// order, and reduces the results into a report. Any failed combination fails
// the whole report.
func (o *Orchestrator) Demo(ctx context.Context, imageBytes []byte, progress Progress) (*model.DemoReport, error) {
	if len(imageBytes) == 0 {
		return nil, perrors.New(perrors.KindValidation, "orchestrator.demo", "image is empty")
	}

	run := o.Process
	if o.exclusive {
		release, err := o.admit(ctx, o.capacity)
		if err != nil {
			return nil, err
		}
		defer release()
		run = o.process
	}

	total := len(model.Operations) * len(model.Modes)
	results := make([]model.ProcessingResult, 0, total)
	for _, op := range model.Operations {
		for _, mode := range model.Modes {
			res, err := run(ctx, model.ProcessingRequest{ImageBytes: imageBytes, Operation: op, Mode: mode})
			if err != nil {
				return nil, fmt.Errorf("demo %s/%s: %w", op, mode, err)
			}
			results = append(results, *res)
			if progress != nil {
				progress(len(results), total, res)
			}
		}
	}

	return BuildReport(results)
}

// BuildReport pairs the serial and parallel result of every operation in
// matrix order. Results are matched by operation and mode, not position.
func BuildReport(results []model.ProcessingResult) (*model.DemoReport, error) {
	if len(results) == 0 {
		return nil, perrors.New(perrors.KindIntegration, "orchestrator.build-report", "no results")
	}

	byKey := make(map[resultKey]model.Metadata, len(results))
	for _, r := range results {
		k := resultKey{r.Operation, r.Mode}
		if _, dup := byKey[k]; dup {
			return nil, perrors.Newf(perrors.KindIntegration, "orchestrator.build-report", "duplicate result for %s/%s", r.Operation, r.Mode)
		}
		byKey[k] = r.Metadata
	}

	ref := reference(results)
	for _, r := range results {
		if !sameImage(ref, r) {
			return nil, perrors.Newf(perrors.KindIntegration, "orchestrator.build-report",
				"%s/%s reported %s, expected %s", r.Operation, r.Mode, r.Metadata.ImageSize(), ref.ImageSize())
		}
	}

	report := &model.DemoReport{
		ImageSize: ref.ImageSize(),
		Results:   make([]model.DemoComparison, 0, len(model.Operations)),
	}
	for _, op := range model.Operations {
		serial, ok := byKey[resultKey{op, model.ModeSerial}]
		if !ok {
			return nil, perrors.Newf(perrors.KindIntegration, "orchestrator.build-report", "missing serial result for %s", op)
		}
		parallel, ok := byKey[resultKey{op, model.ModeParallel}]
		if !ok {
			return nil, perrors.Newf(perrors.KindIntegration, "orchestrator.build-report", "missing parallel result for %s", op)
		}
		report.Results = append(report.Results, model.DemoComparison{
			Operation:    op,
			SerialTime:   serial.ProcessingTime,
			ParallelTime: parallel.ProcessingTime,
			Speedup:      parallel.Speedup,
		})
	}
	return report, nil
}

// reference picks the dimensions every other result is compared with. Rotated
// results may be transposed, so the first non-rotated result is preferred.
func reference(results []model.ProcessingResult) model.Metadata {
	for _, r := range results {
		if r.Operation != model.OperationRotate {
			return r.Metadata
		}
	}
	return results[0].Metadata
}

func sameImage(ref model.Metadata, r model.ProcessingResult) bool {
	md := r.Metadata
	if md.Width == ref.Width && md.Height == ref.Height {
		return true
	}
	return r.Operation == model.OperationRotate && md.Width == ref.Height && md.Height == ref.Width
}
