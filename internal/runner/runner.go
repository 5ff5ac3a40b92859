// Package runner drives a benchmark definition through its scenarios and
// cases, measuring each case and reporting to hooks and adapters.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"

	"benchkit/internal/adapters"
	"benchkit/internal/config"
	"benchkit/internal/core"
	"benchkit/internal/hooks"
	"benchkit/internal/measure"
	"benchkit/internal/stats"
)

// Runner is the orchestrator. It runs one benchmark at a time; concurrent
// calls to Run are serialised so measurement loops never overlap.
type Runner struct {
	resolver *config.Resolver
	hooks    *hooks.Bus
	adapters *adapters.Registry
	meter    *measure.Meter
	logger   *slog.Logger

	runMu sync.Mutex
	state atomic.Int32
}

type Option func(*Runner)

func WithHooks(bus *hooks.Bus) Option { return func(r *Runner) { r.hooks = bus } }

func WithAdapters(reg *adapters.Registry) Option { return func(r *Runner) { r.adapters = reg } }

func WithMeter(m *measure.Meter) Option { return func(r *Runner) { r.meter = m } }

func WithLogger(l *slog.Logger) Option { return func(r *Runner) { r.logger = l } }

// New builds a Runner. A nil resolver falls back to the built-in defaults.
func New(resolver *config.Resolver, opts ...Option) *Runner {
	if resolver == nil {
		resolver = config.NewResolver(&config.Config{})
	}
	r := &Runner{resolver: resolver}
	for _, opt := range opts {
		opt(r)
	}
	if r.hooks == nil {
		r.hooks = hooks.NewBus()
	}
	if r.adapters == nil {
		r.adapters = adapters.NewRegistry()
	}
	if r.meter == nil {
		r.meter = measure.NewMeter(nil, nil)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// State reports what the runner is doing right now.
func (r *Runner) State() State {
	return State(r.state.Load())
}

func (r *Runner) setState(s State) {
	r.state.Store(int32(s))
}

// Run executes def. Definition problems (InvalidManifest, InvalidFunction)
// are returned unchanged; any other failure ends the run and is returned as
// a BenchmarkExecution error naming the benchmark.
func (r *Runner) Run(ctx context.Context, def *core.Definition) error {
	if def == nil {
		return core.InvalidManifest("definition is nil")
	}
	if def.Name == "" {
		return core.InvalidManifest("benchmark name is required")
	}

	r.runMu.Lock()
	defer r.runMu.Unlock()

	r.setState(RunningBenchmark)
	defer r.setState(Idle)

	log := r.logger.With(slog.String("benchmark", def.Name))
	log.Info("benchmark started", slog.Int("scenarios", len(def.Scenarios)), slog.Int("cases", len(def.Cases)))

	if err := r.runBenchmark(ctx, def, log); err != nil {
		if core.IsInputError(err) {
			log.Error("benchmark rejected", slog.String("error", err.Error()))
			return err
		}
		log.Error("benchmark failed", slog.String("error", err.Error()))
		return core.BenchmarkExecution(def.Name, err)
	}

	log.Info("benchmark finished")
	return nil
}

func (r *Runner) runBenchmark(ctx context.Context, def *core.Definition, log *slog.Logger) error {
	r.fire(ctx, log, hooks.PreBenchmark, hooks.Context{Benchmark: def.Name})

	for _, sc := range def.Scenarios {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.setState(RunningScenario)
		if err := r.runScenario(ctx, def, sc, log.With(slog.String("scenario", sc.Name))); err != nil {
			return err
		}
		r.setState(RunningBenchmark)
	}

	r.fire(ctx, log, hooks.PostBenchmark, hooks.Context{Benchmark: def.Name})
	return nil
}

func (r *Runner) runScenario(ctx context.Context, def *core.Definition, sc core.Scenario, log *slog.Logger) error {
	r.fire(ctx, log, hooks.PreScenario, hooks.Context{Benchmark: def.Name, Scenario: sc.Name})

	var payload any
	if def.Generate != nil {
		p, err := generate(ctx, def.Generate, sc)
		if err != nil {
			return fmt.Errorf("generating payload for scenario %q: %w", sc.Name, err)
		}
		payload = p
	}

	results := make([]core.CaseResult, 0, len(def.Cases))
	for _, c := range def.Cases {
		if err := ctx.Err(); err != nil {
			return err
		}
		r.setState(RunningCase)
		res, err := r.runCase(ctx, def, sc, c, payload, log.With(slog.String("case", c.Name)))
		if err != nil {
			return err
		}
		results = append(results, res)
		r.setState(RunningScenario)
	}

	if cmp := r.adapters.Comparator(); cmp != nil && len(results) > 1 {
		err := cmp.CompareResults(adapters.Comparison{Benchmark: def.Name, Scenario: sc.Name, Results: results})
		if err != nil {
			return fmt.Errorf("comparing scenario %q: %w", sc.Name, err)
		}
	}

	r.fire(ctx, log, hooks.PostScenario, hooks.Context{Benchmark: def.Name, Scenario: sc.Name, Payload: payload, Results: slices.Clone(results)})
	return nil
}

func (r *Runner) runCase(ctx context.Context, def *core.Definition, sc core.Scenario, c core.Case, payload any, log *slog.Logger) (core.CaseResult, error) {
	hc := hooks.Context{Benchmark: def.Name, Scenario: sc.Name, Case: c.Name, Payload: payload}
	r.fire(ctx, log, hooks.PreCase, hc)

	if c.Fn == nil {
		return core.CaseResult{}, core.InvalidFunction(c.Name)
	}

	opts, err := r.options(def, sc)
	if err != nil {
		return core.CaseResult{}, err
	}
	opts.Name = c.Name
	opts.Params = core.Input{Params: sc.Params, Payload: payload}

	log.Debug("measuring",
		slog.Int("iterations", opts.Iterations),
		slog.Duration("time_limit", opts.TimeLimit),
		slog.Bool("priority_cpu", opts.PriorityCPU),
		slog.Float64("rate", opts.Rate))

	m, err := r.meter.Run(ctx, c.Fn, opts)
	if err != nil {
		return core.CaseResult{}, fmt.Errorf("case %q: %w", c.Name, err)
	}

	primary := m.Primary(opts.PriorityCPU)
	hist, err := stats.BuildHistogram(m.Times)
	if err != nil {
		return core.CaseResult{}, fmt.Errorf("case %q: %w", c.Name, err)
	}

	result := core.CaseResult{
		Name:      c.Name,
		Mean:      primary.Mean,
		Median:    primary.Median,
		StdDev:    primary.StdDev,
		P95:       primary.P95,
		CV:        primary.CV,
		OpsPerSec: OpsPerSec(m.Count, m.Elapsed.Seconds()),
		Count:     m.Count,
	}

	if l := r.adapters.Logger(); l != nil {
		report := adapters.CaseReport{
			Benchmark:   def.Name,
			Scenario:    sc.Name,
			Result:      result,
			Measurement: m,
			Histogram:   hist,
			PriorityCPU: opts.PriorityCPU,
		}
		if err := l.LogCaseResults(report); err != nil {
			return core.CaseResult{}, fmt.Errorf("logging case %q: %w", c.Name, err)
		}
	}

	// Hooks get their own copy so they cannot alter the reported result.
	rc := result
	hc.Result = &rc
	r.fire(ctx, log, hooks.PostCase, hc)
	return result, nil
}

// options resolves measurement options with precedence scenario > benchmark
// > config file > built-in.
func (r *Runner) options(def *core.Definition, sc core.Scenario) (measure.Options, error) {
	var (
		opts measure.Options
		err  error
	)
	if opts.Iterations, err = r.resolver.Int(config.KeyIterations, def.Overrides, sc.Overrides); err != nil {
		return opts, err
	}
	if opts.TimeLimit, err = r.resolver.Duration(config.KeyTimeLimit, def.Overrides, sc.Overrides); err != nil {
		return opts, err
	}
	if opts.PriorityCPU, err = r.resolver.Bool(config.KeyPriorityCPU, def.Overrides, sc.Overrides); err != nil {
		return opts, err
	}
	if opts.Rate, err = r.resolver.Float(config.KeyRate, def.Overrides, sc.Overrides); err != nil {
		return opts, err
	}
	if opts.Warmup, err = r.resolver.Int(config.KeyWarmup, def.Overrides, sc.Overrides); err != nil {
		return opts, err
	}
	return opts, nil
}

func (r *Runner) fire(ctx context.Context, log *slog.Logger, point hooks.Point, hc hooks.Context) {
	for _, o := range hooks.Failed(r.hooks.Execute(ctx, point, hc)) {
		log.Warn("hook failed",
			slog.String("point", string(point)),
			slog.String("hook", o.ID),
			slog.String("error", o.Err.Error()))
	}
}

// OpsPerSec is count divided by elapsed seconds; zero when nothing elapsed.
func OpsPerSec(count int, elapsedSeconds float64) float64 {
	if elapsedSeconds <= 0 {
		return 0
	}
	return float64(count) / elapsedSeconds
}

func generate(ctx context.Context, fn core.PayloadFunc, sc core.Scenario) (payload any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("generator panicked: %v", rec)
		}
	}()
	return fn(ctx, sc)
}
