package adapters

import (
	"sync"

	"benchkit/internal/core"
)

// Entry is a case result with the units it belongs to.
type Entry struct {
	Benchmark string          `json:"benchmark"`
	Scenario  string          `json:"scenario"`
	Result    core.CaseResult `json:"result"`
}

// Collector is a Logger that keeps every case result for end-of-run checks.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) LogCaseResults(r CaseReport) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{Benchmark: r.Benchmark, Scenario: r.Scenario, Result: r.Result})
	return nil
}

// Entries returns a copy of the collected results.
func (c *Collector) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}
