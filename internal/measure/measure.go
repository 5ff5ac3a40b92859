// Package measure repeatedly invokes a single function and records how long
// each call took in wall-clock and CPU time.
package measure

import (
	"context"
	"fmt"
	"time"

	"benchkit/internal/core"
	"benchkit/internal/ratelimit"
	"benchkit/internal/resources"
	"benchkit/internal/stats"
)

// Options bounds and shapes one measurement. At least one of Iterations and
// TimeLimit must be positive.
type Options struct {
	// Name labels errors; usually the case name.
	Name        string
	Params      core.Input
	Iterations  int           // 0 = unbounded
	TimeLimit   time.Duration // 0 = unbounded
	PriorityCPU bool
	// Rate paces calls per second; the wait happens outside the timed window.
	Rate float64
	// Warmup calls run before measurement and are discarded.
	Warmup int
}

type Resources struct {
	CPUTime time.Duration `json:"cpuTime"`
	PeakMem uint64        `json:"peakMem"`
}

// Result holds the raw series and their summaries.
type Result struct {
	// Times is the CPU series when PriorityCPU is set, otherwise the wall series.
	Times     []time.Duration
	WallTimes []time.Duration
	CPUTimes  []time.Duration
	Count     int
	// Elapsed is the sum of the measured wall durations. Pacing waits,
	// sampling and bookkeeping between calls are excluded.
	Elapsed   time.Duration
	Resources Resources
	Wall      stats.Statistics
	CPU       stats.Statistics
}

// Primary returns the statistics of the series Times was taken from.
func (r *Result) Primary(priorityCPU bool) stats.Statistics {
	if priorityCPU {
		return r.CPU
	}
	return r.Wall
}

// Meter runs measurement loops against a clock and a process sampler.
// A Meter is not safe for concurrent use; loops must not overlap.
type Meter struct {
	clock   core.Clock
	sampler resources.Sampler
}

func NewMeter(clock core.Clock, sampler resources.Sampler) *Meter {
	if clock == nil {
		clock = core.RealClock{}
	}
	if sampler == nil {
		sampler = resources.NewProcess()
	}
	return &Meter{clock: clock, sampler: sampler}
}

// Run measures fn with a real clock and the current process.
func Run(ctx context.Context, fn core.CaseFunc, opts Options) (*Result, error) {
	return NewMeter(nil, nil).Run(ctx, fn, opts)
}

// Run invokes fn until opts.Iterations calls have completed or the summed
// call durations reach opts.TimeLimit, whichever comes first. Both bounds are checked after each call,
// so at least one call is always measured and a slow call may overrun the
// limit. A failing call aborts the loop and no partial result is returned.
func (m *Meter) Run(ctx context.Context, fn core.CaseFunc, opts Options) (*Result, error) {
	if fn == nil {
		return nil, core.InvalidFunction(opts.Name)
	}
	if opts.Iterations <= 0 && opts.TimeLimit <= 0 {
		return nil, core.Configuration("iterations and timeLimit are both unbounded", nil)
	}

	pacer := ratelimit.NewPacer(opts.Rate)

	for i := 0; i < opts.Warmup; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := invoke(ctx, fn, opts.Params); err != nil {
			return nil, fmt.Errorf("warmup call %d: %w", i+1, err)
		}
	}

	capacity := opts.Iterations
	if capacity <= 0 {
		capacity = 64
	}
	res := &Result{
		WallTimes: make([]time.Duration, 0, capacity),
		CPUTimes:  make([]time.Duration, 0, capacity),
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := pacer.Wait(ctx); err != nil {
			return nil, err
		}

		wall, cpu, err := m.once(ctx, fn, opts)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", res.Count+1, err)
		}

		res.WallTimes = append(res.WallTimes, wall)
		res.CPUTimes = append(res.CPUTimes, cpu)
		res.Elapsed += wall
		res.Resources.CPUTime += cpu
		res.Resources.PeakMem = max(res.Resources.PeakMem, m.sampler.ResidentMemory())
		res.Count++

		if opts.Iterations > 0 && res.Count >= opts.Iterations {
			break
		}
		if opts.TimeLimit > 0 && res.Elapsed >= opts.TimeLimit {
			break
		}
	}

	res.Times = res.WallTimes
	if opts.PriorityCPU {
		res.Times = res.CPUTimes
	}

	var err error
	if res.Wall, err = stats.Calculate(res.WallTimes); err != nil {
		return nil, err
	}
	if res.CPU, err = stats.Calculate(res.CPUTimes); err != nil {
		return nil, err
	}
	return res, nil
}

// once times a single call. With PriorityCPU the CPU counters bracket the
// call tightest; otherwise the wall clock does.
func (m *Meter) once(ctx context.Context, fn core.CaseFunc, opts Options) (wall, cpu time.Duration, err error) {
	var wallStart, wallEnd time.Time
	var cpuStart, cpuEnd time.Duration

	if opts.PriorityCPU {
		wallStart = m.clock.Now()
		cpuStart = m.sampler.CPUTime()
		err = invoke(ctx, fn, opts.Params)
		cpuEnd = m.sampler.CPUTime()
		wallEnd = m.clock.Now()
	} else {
		cpuStart = m.sampler.CPUTime()
		wallStart = m.clock.Now()
		err = invoke(ctx, fn, opts.Params)
		wallEnd = m.clock.Now()
		cpuEnd = m.sampler.CPUTime()
	}
	if err != nil {
		return 0, 0, err
	}
	return wallEnd.Sub(wallStart), max(0, cpuEnd-cpuStart), nil
}

func invoke(ctx context.Context, fn core.CaseFunc, in core.Input) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	_, err = fn(ctx, in)
	return err
}
