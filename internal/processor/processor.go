// Package processor drives the external image-processing executable.
//
// The executable is invoked as `<path> <input> <operation> <output> <mode>`,
// writes the processed image to <output> and prints one JSON line with
// width, height, processingTime and speedup. Exit status 0 means success.
package processor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	perrors "pixelflow/internal/errors"
	"pixelflow/internal/logging"
	"pixelflow/pkg/config"
	"pixelflow/pkg/model"
)

const (
	stderrTailSize = 4 * 1024
	waitDelay      = 5 * time.Second
)

// InvocationError describes a failed run of the external executable.
// ExitCode is -1 when the process never started or was killed.
type InvocationError struct {
	Operation model.Operation
	Mode      model.Mode
	ExitCode  int
	Stderr    string
	Reason    string
	Err       error
}

func (e *InvocationError) Error() string {
	msg := fmt.Sprintf("processor %s/%s: %s", e.Operation, e.Mode, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

type Processor struct {
	path    string
	timeout time.Duration
	logger  *logging.Logger
}

func New(cfg config.ProcessorConfig, logger *logging.Logger) *Processor {
	if logger == nil {
		logger = logging.BuildLogger()
	}
	return &Processor{
		path:    cfg.Path,
		timeout: cfg.Timeout,
		logger:  logger.With("component", "processor"),
	}
}

func (p *Processor) Path() string {
	return p.path
}

// Available reports whether the configured executable can be run.
func (p *Processor) Available() error {
	_, err := exec.LookPath(p.path)
	return err
}

// Invoke runs the executable once and waits for it. Failures are never retried.
func (p *Processor) Invoke(ctx context.Context, inputPath string, op model.Operation, outputPath string, mode model.Mode) (model.Metadata, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var stdout bytes.Buffer
	stderr := &tailBuffer{limit: stderrTailSize}

	cmd := exec.CommandContext(ctx, p.path, inputPath, string(op), outputPath, string(mode))
	cmd.Stdout = &stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		invErr := &InvocationError{Operation: op, Mode: mode, ExitCode: -1, Stderr: stderr.String(), Err: runErr}
		var exitErr *exec.ExitError
		switch {
		case ctx.Err() != nil:
			invErr.Reason = "terminated before completion"
			invErr.Err = errors.Join(ctx.Err(), runErr)
		case errors.As(runErr, &exitErr):
			invErr.ExitCode = exitErr.ExitCode()
			invErr.Reason = fmt.Sprintf("exited with status %d", invErr.ExitCode)
		default:
			invErr.Reason = "failed to start"
		}
		p.logger.With("operation", op, "mode", mode, "exit_code", invErr.ExitCode, "stderr", invErr.Stderr, "elapsed", elapsed.String()).
			WithError(runErr).Error("Processor invocation failed")
		return model.Metadata{}, perrors.Wrap(perrors.KindProcessor, "processor.invoke", "invocation failed", invErr)
	}

	md, err := ParseMetadata(stdout.Bytes())
	if err != nil {
		invErr := &InvocationError{Operation: op, Mode: mode, ExitCode: 0, Stderr: stderr.String(), Reason: "unusable output", Err: err}
		p.logger.With("operation", op, "mode", mode, "stdout", truncate(stdout.String(), stderrTailSize)).
			WithError(err).Error("Processor output could not be parsed")
		return model.Metadata{}, perrors.Wrap(perrors.KindProcessor, "processor.invoke", "invocation failed", invErr)
	}

	p.logger.Debug("Processor invocation finished", "operation", op, "mode", mode, "size", md.ImageSize(), "elapsed", elapsed.String())
	return md, nil
}

// tailBuffer keeps only the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(bytes.TrimSpace(t.buf))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
