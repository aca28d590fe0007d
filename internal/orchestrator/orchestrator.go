// Package orchestrator composes the workspace manager and the processor into
// single invocations and the serial-versus-parallel benchmark.
package orchestrator

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	perrors "pixelflow/internal/errors"
	"pixelflow/internal/logging"
	"pixelflow/internal/workspace"
	"pixelflow/pkg/config"
	"pixelflow/pkg/model"
)

// Invoker runs the external processor once.
type Invoker interface {
	Invoke(ctx context.Context, inputPath string, op model.Operation, outputPath string, mode model.Mode) (model.Metadata, error)
}

type Orchestrator struct {
	workspaces *workspace.Manager
	invoker    Invoker
	logger     *logging.Logger

	limiter   *semaphore.Weighted
	capacity  int64
	inFlight  atomic.Int64
	exclusive bool
}

type Stats struct {
	Capacity         int64 `json:"capacity"`
	InFlight         int64 `json:"in_flight"`
	ActiveWorkspaces int64 `json:"active_workspaces"`
}

func New(workspaces *workspace.Manager, invoker Invoker, cfg config.OrchestratorConfig, logger *logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.BuildLogger()
	}
	capacity := int64(cfg.MaxConcurrentInvocations)
	if capacity < 1 {
		capacity = 1
	}
	return &Orchestrator{
		workspaces: workspaces,
		invoker:    invoker,
		logger:     logger.With("component", "orchestrator"),
		limiter:    semaphore.NewWeighted(capacity),
		capacity:   capacity,
		exclusive:  cfg.ExclusiveBenchmark,
	}
}

func (o *Orchestrator) Stats() Stats {
	return Stats{
		Capacity:         o.capacity,
		InFlight:         o.inFlight.Load(),
		ActiveWorkspaces: o.workspaces.Active(),
	}
}

func (o *Orchestrator) admit(ctx context.Context, weight int64) (func(), error) {
	if err := o.limiter.Acquire(ctx, weight); err != nil {
		return nil, perrors.Wrap(perrors.KindProcessor, "orchestrator.admit", "waiting for an invocation slot", err)
	}
	return func() { o.limiter.Release(weight) }, nil
}

// Process runs one invocation end to end. The workspace is released before
// Process returns, whether or not the invocation succeeded.
func (o *Orchestrator) Process(ctx context.Context, req model.ProcessingRequest) (*model.ProcessingResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	release, err := o.admit(ctx, 1)
	if err != nil {
		return nil, err
	}
	defer release()

	return o.process(ctx, req)
}

func (o *Orchestrator) process(ctx context.Context, req model.ProcessingRequest) (result *model.ProcessingResult, err error) {
	ws, err := o.workspaces.Acquire()
	if err != nil {
		return nil, err
	}
	logger := o.logger.With("workspace", ws.ID, "operation", req.Operation, "mode", req.Mode)

	o.inFlight.Add(1)
	defer func() {
		o.inFlight.Add(-1)
		if releaseErr := ws.Release(); releaseErr != nil {
			logger.WithError(releaseErr).Error("Failed to release workspace")
			if err == nil {
				result, err = nil, releaseErr
			}
		}
	}()

	if err = ws.WriteInput(req.ImageBytes); err != nil {
		return nil, err
	}

	md, err := o.invoker.Invoke(ctx, ws.InputPath, req.Operation, ws.OutputPath, req.Mode)
	if err != nil {
		return nil, perrors.Wrap(perrors.KindProcessor, "orchestrator.process", "processor invocation failed", err)
	}

	output, err := ws.ReadOutput()
	if err != nil {
		return nil, err
	}

	logger.Debug("Invocation finished", "size", md.ImageSize(), "processing_time", md.ProcessingTime, "speedup", md.Speedup)
	return &model.ProcessingResult{
		Operation:   req.Operation,
		Mode:        req.Mode,
		Metadata:    md,
		OutputBytes: output,
	}, nil
}
