// Package hooks is the lifecycle notification bus used by the orchestrator.
package hooks

import (
	"context"
	"fmt"
	"sync"

	"benchkit/internal/core"
)

// Point names a lifecycle notification.
type Point string

const (
	PreBenchmark  Point = "preBenchmark"
	PreScenario   Point = "preScenario"
	PreCase       Point = "preCase"
	PostCase      Point = "postCase"
	PostScenario  Point = "postScenario"
	PostBenchmark Point = "postBenchmark"
)

// Points lists every lifecycle point in firing order.
var Points = []Point{PreBenchmark, PreScenario, PreCase, PostCase, PostScenario, PostBenchmark}

// Context describes the unit a hook fires for. Fields not relevant to the
// point are left zero: Result is only set for PostCase, Results only for
// PostScenario.
type Context struct {
	Benchmark string
	Scenario  string
	Case      string
	Payload   any
	Result    *core.CaseResult
	Results   []core.CaseResult
}

// Func is a hook callback. Errors and panics are reported, never propagated.
type Func func(ctx context.Context, hc Context) error

// Outcome is the result of one callback.
type Outcome struct {
	ID  string
	Err error
}

type entry struct {
	id string
	fn Func
}

// Bus holds callbacks per lifecycle point and runs them in registration order.
type Bus struct {
	mu    sync.RWMutex
	hooks map[Point][]entry
}

func NewBus() *Bus {
	return &Bus{hooks: make(map[Point][]entry)}
}

// Register adds fn under id at the given point.
func (b *Bus) Register(point Point, id string, fn Func) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hooks[point] = append(b.hooks[point], entry{id: id, fn: fn})
}

// Count returns how many callbacks are registered at point.
func (b *Bus) Count(point Point) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.hooks[point])
}

// Execute runs every callback for point sequentially. A failing callback
// never prevents the rest from running.
func (b *Bus) Execute(ctx context.Context, point Point, hc Context) []Outcome {
	if b == nil {
		return nil
	}
	b.mu.RLock()
	entries := append([]entry(nil), b.hooks[point]...)
	b.mu.RUnlock()

	if len(entries) == 0 {
		return nil
	}
	outcomes := make([]Outcome, 0, len(entries))
	for _, e := range entries {
		outcomes = append(outcomes, Outcome{ID: e.id, Err: call(ctx, e.fn, hc)})
	}
	return outcomes
}

// Failed filters outcomes down to the ones that returned an error.
func Failed(outcomes []Outcome) []Outcome {
	var failed []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failed = append(failed, o)
		}
	}
	return failed
}

func call(ctx context.Context, fn Func, hc Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panicked: %v", r)
		}
	}()
	return fn(ctx, hc)
}
