// Package workspace allocates the temporary input/output file pair used by a
// single external processor invocation and guarantees its removal.
package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	perrors "pixelflow/internal/errors"
)

const (
	filePrefix   = "pixelflow-"
	inputSuffix  = "-in.jpg"
	outputSuffix = "-out.jpg"
)

type Manager struct {
	dir    string
	active atomic.Int64
}

func NewManager(dir string) *Manager {
	if dir == "" {
		dir = os.TempDir()
	}
	return &Manager{dir: dir}
}

func (m *Manager) Dir() string {
	return m.dir
}

// Active returns the number of acquired workspaces not yet released.
func (m *Manager) Active() int64 {
	return m.active.Load()
}

type Workspace struct {
	ID         string
	InputPath  string
	OutputPath string

	manager    *Manager
	once       sync.Once
	releaseErr error
}

// Acquire reserves a fresh pair of paths. Nothing is created on disk until
// WriteInput is called, but the pair must still be released.
func (m *Manager) Acquire() (*Workspace, error) {
	if err := os.MkdirAll(m.dir, 0o700); err != nil {
		return nil, perrors.Wrap(perrors.KindIO, "workspace.acquire", "create workspace dir", err)
	}

	id := uuid.NewString()
	ws := &Workspace{
		ID:         id,
		InputPath:  filepath.Join(m.dir, filePrefix+id+inputSuffix),
		OutputPath: filepath.Join(m.dir, filePrefix+id+outputSuffix),
		manager:    m,
	}
	m.active.Add(1)
	return ws, nil
}

// WriteInput persists data to the input path. O_EXCL turns any path reuse into
// an error instead of a silent overwrite.
func (w *Workspace) WriteInput(data []byte) error {
	f, err := os.OpenFile(w.InputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return perrors.Wrap(perrors.KindIO, "workspace.write-input", "open input file", err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return perrors.Wrap(perrors.KindIO, "workspace.write-input", "write input file", err)
	}
	if err = f.Close(); err != nil {
		return perrors.Wrap(perrors.KindIO, "workspace.write-input", "close input file", err)
	}
	return nil
}

func (w *Workspace) ReadOutput() ([]byte, error) {
	data, err := os.ReadFile(w.OutputPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, perrors.Wrap(perrors.KindIO, "workspace.read-output", "processor did not produce an output file", err)
	}
	if err != nil {
		return nil, perrors.Wrap(perrors.KindIO, "workspace.read-output", "read output file", err)
	}
	if len(data) == 0 {
		return nil, perrors.New(perrors.KindIO, "workspace.read-output", "processor produced an empty output file")
	}
	return data, nil
}

// Release deletes both paths. It is safe to call more than once; only the
// first call touches the filesystem.
func (w *Workspace) Release() error {
	w.once.Do(func() {
		var errs []error
		for _, path := range []string{w.InputPath, w.OutputPath} {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
		}
		w.manager.active.Add(-1)
		if len(errs) > 0 {
			w.releaseErr = perrors.Wrap(perrors.KindIO, "workspace.release", "remove workspace files", errors.Join(errs...))
		}
	})
	return w.releaseErr
}

// Sweep removes workspace files older than maxAge, left behind by a process
// that died mid-invocation. It returns the number of files removed.
func (m *Manager) Sweep(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, perrors.Wrap(perrors.KindIO, "workspace.sweep", "list workspace dir", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isWorkspaceFile(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err = os.Remove(filepath.Join(m.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		removed++
	}
	if len(errs) > 0 {
		return removed, perrors.Wrap(perrors.KindIO, "workspace.sweep", "remove stale files", errors.Join(errs...))
	}
	return removed, nil
}

func isWorkspaceFile(name string) bool {
	return strings.HasPrefix(name, filePrefix) &&
		(strings.HasSuffix(name, inputSuffix) || strings.HasSuffix(name, outputSuffix))
}
