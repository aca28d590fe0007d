package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	perrors "pixelflow/internal/errors"
	"pixelflow/internal/logging"
	"pixelflow/pkg/config"
	"pixelflow/pkg/model"
	"pixelflow/test"
)

func TestMain(m *testing.M) {
	test.RunFakeProcessorIfRequested()
	os.Exit(m.Run())
}

func newTestProcessor(path string, timeout time.Duration) *Processor {
	return New(config.ProcessorConfig{Path: path, Timeout: timeout}, logging.BuildLoggerTo(os.Stderr))
}

func writeInput(t *testing.T, data []byte) (string, string) {
	t.Helper()
	dir := t.TempDir()
	in := filepath.Join(dir, "in.jpg")
	require.NoError(t, os.WriteFile(in, data, 0o600))
	return in, filepath.Join(dir, "out.jpg")
}

func requireInvocationError(t *testing.T, err error) *InvocationError {
	t.Helper()
	require.Error(t, err)
	assert.True(t, perrors.IsKind(err, perrors.KindProcessor), "expected processor kind, got %v", err)
	var invErr *InvocationError
	require.True(t, errors.As(err, &invErr), "expected *InvocationError in chain, got %T", err)
	return invErr
}

func TestInvokeSuccess(t *testing.T) {
	p := newTestProcessor(test.FakeProcessorPath(), time.Minute)

	cases := []struct {
		op             model.Operation
		mode           model.Mode
		width, height  int
		expectSpeedup0 bool
	}{
		{model.OperationGrayscale, model.ModeSerial, 100, 50, true},
		{model.OperationFlip, model.ModeParallel, 100, 50, false},
		{model.OperationRotate, model.ModeSerial, 50, 100, true},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(string(tc.op)+"-"+string(tc.mode), func(t *testing.T) {
			t.Parallel()
			in, out := writeInput(t, test.JPEG(100, 50))

			md, err := p.Invoke(context.Background(), in, tc.op, out, tc.mode)
			require.NoError(t, err)

			assert.Equal(t, tc.width, md.Width)
			assert.Equal(t, tc.height, md.Height)
			assert.Greater(t, md.ProcessingTime, 0.0)
			if tc.expectSpeedup0 {
				assert.Equal(t, 0.0, md.Speedup)
			} else {
				assert.GreaterOrEqual(t, md.Speedup, 0.0)
			}

			processed, err := os.ReadFile(out)
			require.NoError(t, err)
			w, h, err := test.DecodeSize(processed)
			require.NoError(t, err)
			assert.Equal(t, tc.width, w)
			assert.Equal(t, tc.height, h)
		})
	}
}

func TestInvokeNonZeroExit(t *testing.T) {
	p := newTestProcessor(test.FakeProcessorPath(), time.Minute)
	in, out := writeInput(t, test.WithDirective("exit=3", test.JPEG(10, 10)))

	_, err := p.Invoke(context.Background(), in, model.OperationFlip, out, model.ModeSerial)

	invErr := requireInvocationError(t, err)
	assert.Equal(t, 3, invErr.ExitCode)
	assert.Contains(t, invErr.Stderr, "forced exit 3")
}

func TestInvokeMalformedOutput(t *testing.T) {
	p := newTestProcessor(test.FakeProcessorPath(), time.Minute)

	for _, directive := range []string{"garbage", "missing-field"} {
		directive := directive
		t.Run(directive, func(t *testing.T) {
			in, out := writeInput(t, test.WithDirective(directive, test.JPEG(10, 10)))
			_, err := p.Invoke(context.Background(), in, model.OperationFlip, out, model.ModeSerial)
			invErr := requireInvocationError(t, err)
			assert.Equal(t, 0, invErr.ExitCode)
		})
	}
}

func TestInvokeSpawnFailure(t *testing.T) {
	p := newTestProcessor(filepath.Join(t.TempDir(), "does-not-exist"), time.Minute)
	in, out := writeInput(t, test.JPEG(10, 10))

	_, err := p.Invoke(context.Background(), in, model.OperationFlip, out, model.ModeSerial)

	invErr := requireInvocationError(t, err)
	assert.Equal(t, -1, invErr.ExitCode)
	assert.Error(t, p.Available())
}

func TestInvokeTimeout(t *testing.T) {
	p := newTestProcessor(test.FakeProcessorPath(), 200*time.Millisecond)
	in, out := writeInput(t, test.WithDirective("sleep=10s", test.JPEG(10, 10)))

	start := time.Now()
	_, err := p.Invoke(context.Background(), in, model.OperationFlip, out, model.ModeSerial)

	requireInvocationError(t, err)
	assert.Less(t, time.Since(start), 8*time.Second)
}

func TestAvailable(t *testing.T) {
	p := newTestProcessor(test.FakeProcessorPath(), time.Minute)
	assert.NoError(t, p.Available())
}
