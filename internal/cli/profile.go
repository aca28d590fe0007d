package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"sync"
	"time"
)

// MemorySampleRate How often to dump the memory to a file in HZ. Values of less than 1 are recommended to avoid
// having to sort through too many dump files
var MemorySampleRate = 0.5

// Profiler owns the CPU profile file and the periodic heap dumps of one run.
// A nil Profiler is valid and does nothing.
type Profiler struct {
	cpuFile *os.File

	memDir    string
	heapDumps [][]byte
	mu        sync.Mutex
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
}

// StartProfiling starts whichever profilers have a destination. It returns nil
// when neither is requested.
func StartProfiling(cpuProfile, memProfileDir string) (*Profiler, error) {
	if cpuProfile == "" && memProfileDir == "" {
		return nil, nil
	}
	p := &Profiler{}

	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return nil, fmt.Errorf("create cpu profile: %w", err)
		}
		runtime.SetCPUProfileRate(500)
		if err = pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("start cpu profile: %w", err)
		}
		p.cpuFile = f
	}

	if memProfileDir != "" && MemorySampleRate > 0 {
		p.memDir = memProfileDir
		p.stop = make(chan struct{})
		p.done = make(chan struct{})
		go p.sampleMemory(time.Duration((1 / MemorySampleRate) * float64(time.Second)))
	}
	return p, nil
}

func (p *Profiler) sampleMemory(interval time.Duration) {
	defer close(p.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.dumpMemoryProfile()
		}
	}
}

func (p *Profiler) dumpMemoryProfile() {
	w := bytes.NewBuffer(nil)
	if err := pprof.WriteHeapProfile(w); err != nil {
		return
	}
	p.mu.Lock()
	p.heapDumps = append(p.heapDumps, w.Bytes())
	p.mu.Unlock()
}

// Stop flushes every profile to disk. Safe to call more than once.
func (p *Profiler) Stop() error {
	if p == nil {
		return nil
	}
	var err error
	p.stopOnce.Do(func() {
		if p.cpuFile != nil {
			pprof.StopCPUProfile()
			err = p.cpuFile.Close()
		}
		if p.stop != nil {
			close(p.stop)
			<-p.done
			p.dumpMemoryProfile()
			if mkErr := os.MkdirAll(p.memDir, 0o755); mkErr != nil {
				err = mkErr
				return
			}
			for dIdx, dump := range p.heapDumps {
				if wErr := os.WriteFile(filepath.Join(p.memDir, fmt.Sprintf("mem-%d.mprof", dIdx)), dump, 0o644); wErr != nil {
					err = wErr
				}
			}
		}
	})
	return err
}
