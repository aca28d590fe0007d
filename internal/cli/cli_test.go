package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixelflow/test"
)

func TestMain(m *testing.M) {
	test.RunFakeProcessorIfRequested()
	os.Exit(m.Run())
}

type cliEnv struct {
	dir          string
	workspaceDir string
	configFile   string
}

func newCLIEnv(t *testing.T) cliEnv {
	t.Helper()
	dir := t.TempDir()
	env := cliEnv{
		dir:          dir,
		workspaceDir: filepath.Join(dir, "work"),
		configFile:   filepath.Join(dir, "pixelflow.yaml"),
	}
	require.NoError(t, os.Mkdir(env.workspaceDir, 0o755))
	cfg := fmt.Sprintf("processor:\n  path: %q\n  timeout: 1m\nworkspace:\n  dir: %q\nlog:\n  level: error\n", test.FakeProcessorPath(), env.workspaceDir)
	require.NoError(t, os.WriteFile(env.configFile, []byte(cfg), 0o600))
	return env
}

func (e cliEnv) writeImage(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(e.dir, "in.jpg")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := Execute(context.Background(), args, &out, &out)
	return out.String(), err
}

func TestImageProcessCommand(t *testing.T) {
	env := newCLIEnv(t)
	output := filepath.Join(env.dir, "out.jpg")

	out, err := run(t, "image", "process", "--config", env.configFile,
		"--image", env.writeImage(t, test.JPEG(100, 50)),
		"--operation", "rotate", "--mode", "parallel", "--output", output)
	require.NoError(t, err, out)
	assert.Contains(t, out, "50x100")
	assert.Contains(t, out, "Speedup")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	w, h, err := test.DecodeSize(data)
	require.NoError(t, err)
	assert.Equal(t, 50, w)
	assert.Equal(t, 100, h)

	entries, err := os.ReadDir(env.workspaceDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImageProcessCommandRejectsUnknownOperation(t *testing.T) {
	env := newCLIEnv(t)
	_, err := run(t, "image", "process", "--config", env.configFile,
		"--image", env.writeImage(t, test.JPEG(10, 10)),
		"--operation", "sharpen", "--output", filepath.Join(env.dir, "out.jpg"))
	assert.ErrorContains(t, err, "sharpen")
}

func TestImageProcessCommandRequiresFlags(t *testing.T) {
	_, err := run(t, "image", "process", "--operation", "flip")
	assert.Error(t, err)
}

func TestImageDemoCommand(t *testing.T) {
	env := newCLIEnv(t)
	out, err := run(t, "image", "demo", "--quiet", "--config", env.configFile, "--image", env.writeImage(t, test.JPEG(100, 50)))
	require.NoError(t, err, out)
	assert.Contains(t, out, "Image size: 100x50")
	for _, op := range []string{"flip", "rotate", "grayscale"} {
		assert.Contains(t, out, op)
	}
}

func TestImageDemoCommandFailure(t *testing.T) {
	env := newCLIEnv(t)
	out, err := run(t, "image", "demo", "--quiet", "--config", env.configFile,
		"--image", env.writeImage(t, test.WithDirective("fail-on=grayscale/serial", test.JPEG(20, 20))))
	assert.Error(t, err)
	assert.NotContains(t, out, "Image size")
}

func TestFailedCommandFlushesCPUProfile(t *testing.T) {
	env := newCLIEnv(t)
	cpu := filepath.Join(env.dir, "cpu.prof")

	_, err := run(t, "image", "demo", "--quiet", "--config", env.configFile, "--cpu-profile", cpu,
		"--image", env.writeImage(t, test.WithDirective("fail-on=flip/serial", test.JPEG(20, 20))))
	require.Error(t, err)

	info, err := os.Stat(cpu)
	require.NoError(t, err)
	assert.Positive(t, info.Size(), "cpu profile was not flushed")

	// The CPU profiler is process-wide; it must have been released.
	p, err := StartProfiling(filepath.Join(env.dir, "again.prof"), "")
	require.NoError(t, err)
	require.NoError(t, p.Stop())
}

func TestProfileFlushErrorIsReturned(t *testing.T) {
	env := newCLIEnv(t)
	notADir := filepath.Join(env.dir, "mem")
	require.NoError(t, os.WriteFile(notADir, []byte("occupied"), 0o600))

	out, err := run(t, "image", "process", "--config", env.configFile, "--mem-profile-dir", notADir,
		"--image", env.writeImage(t, test.JPEG(10, 10)),
		"--operation", "flip", "--output", filepath.Join(env.dir, "out.jpg"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "flush profiles")
	assert.Contains(t, out, "Wrote")
}

func TestProfiling(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem")

	p, err := StartProfiling(cpu, mem)
	require.NoError(t, err)
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())

	assert.FileExists(t, cpu)
	assert.FileExists(t, filepath.Join(mem, "mem-0.mprof"))
}

func TestProfilingDisabled(t *testing.T) {
	p, err := StartProfiling("", "")
	require.NoError(t, err)
	assert.Nil(t, p)
	assert.NoError(t, p.Stop())
}
