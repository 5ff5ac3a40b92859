// Package adapters defines the reporting capabilities the orchestrator
// feeds, and the built-in implementations of them.
package adapters

import (
	"errors"
	"sync"

	"benchkit/internal/core"
	"benchkit/internal/measure"
	"benchkit/internal/stats"
)

// CaseReport is everything known about one measured case.
type CaseReport struct {
	Benchmark   string
	Scenario    string
	Result      core.CaseResult
	Measurement *measure.Result
	Histogram   stats.Histogram
	// PriorityCPU records which series the primary statistics came from.
	PriorityCPU bool
}

// Comparison is the set of results for one scenario.
type Comparison struct {
	Benchmark string
	Scenario  string
	Results   []core.CaseResult
}

// Logger receives every case as soon as it has been measured.
type Logger interface {
	LogCaseResults(report CaseReport) error
}

// Comparator receives a scenario's results when it has two or more cases.
type Comparator interface {
	CompareResults(cmp Comparison) error
}

// Closer is implemented by adapters that buffer output until the run ends.
type Closer interface {
	Close() error
}

// Registry holds at most one logger and one comparator. A nil or empty
// Registry reports nothing.
type Registry struct {
	mu         sync.RWMutex
	logger     Logger
	comparator Comparator
}

func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) SetLogger(l Logger) {
	r.mu.Lock()
	r.logger = l
	r.mu.Unlock()
}

func (r *Registry) SetComparator(c Comparator) {
	r.mu.Lock()
	r.comparator = c
	r.mu.Unlock()
}

func (r *Registry) Logger() Logger {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.logger
}

func (r *Registry) Comparator() Comparator {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.comparator
}

// Close closes every registered adapter implementing Closer.
func (r *Registry) Close() error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	var errs []error
	if c, ok := r.logger.(Closer); ok {
		errs = append(errs, c.Close())
	}
	if c, ok := r.comparator.(Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// MultiLogger fans a report out to several loggers. Every logger is called
// even if an earlier one fails.
type MultiLogger []Logger

func (m MultiLogger) LogCaseResults(report CaseReport) error {
	var errs []error
	for _, l := range m {
		if err := l.LogCaseResults(report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m MultiLogger) Close() error {
	var errs []error
	for _, l := range m {
		if c, ok := l.(Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}
