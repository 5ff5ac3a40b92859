// Package resources samples process-wide CPU time and resident memory.
package resources

import (
	"runtime"
	"time"

	"github.com/prometheus/procfs"
)

// Sampler reads process counters. Implementations must be cheap enough to
// call twice per measured iteration.
type Sampler interface {
	// CPUTime returns cumulative user+system CPU time of the process.
	CPUTime() time.Duration
	// ResidentMemory returns the current resident set size in bytes.
	ResidentMemory() uint64
}

// Process samples the running process. On Linux resident memory comes from
// /proc/self/stat; elsewhere it falls back to the Go runtime's view.
type Process struct {
	proc    procfs.Proc
	hasProc bool
}

func NewProcess() *Process {
	p := &Process{}
	if proc, err := procfs.Self(); err == nil {
		if _, err := proc.Stat(); err == nil {
			p.proc = proc
			p.hasProc = true
		}
	}
	return p
}

func (p *Process) CPUTime() time.Duration {
	return cpuTime()
}

func (p *Process) ResidentMemory() uint64 {
	if p.hasProc {
		if st, err := p.proc.Stat(); err == nil && st.ResidentMemory() > 0 {
			return uint64(st.ResidentMemory())
		}
	}
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.Sys - ms.HeapReleased
}

// Static is a Sampler returning fixed values, for tests.
type Static struct {
	CPU time.Duration
	RSS uint64
}

func (s *Static) CPUTime() time.Duration { return s.CPU }
func (s *Static) ResidentMemory() uint64 { return s.RSS }
