// Package tracing records a benchmark run as nested OpenTelemetry spans:
// one per benchmark, scenario and case.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"benchkit/internal/hooks"
)

const instrumentation = "benchkit"

type Tracer struct {
	tracer   trace.Tracer
	shutdown func(context.Context) error

	mu       sync.Mutex
	bench    span
	scenario span
	current  span
}

type span struct {
	ctx  context.Context
	span trace.Span
}

func (s *span) end(err error) {
	if s.span == nil {
		return
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	}
	s.span.End()
	*s = span{}
}

// New traces through an existing provider. Shutdown only ends open spans;
// the provider stays owned by the caller.
func New(tp trace.TracerProvider) *Tracer {
	return &Tracer{tracer: tp.Tracer(instrumentation)}
}

// NewFile exports spans as JSON lines to path, created or truncated.
func NewFile(path, runID string) (*Tracer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace file: %w", err)
	}
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("create exporter: %w", err)
	}
	res := resource.NewSchemaless(
		attribute.String("service.name", instrumentation),
		attribute.String("benchkit.run_id", runID),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	t := New(tp)
	t.shutdown = func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), f.Close())
	}
	return t, nil
}

// Attach registers the span callbacks on bus.
func (t *Tracer) Attach(bus *hooks.Bus) {
	bus.Register(hooks.PreBenchmark, "tracing", func(ctx context.Context, hc hooks.Context) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.bench = t.start(ctx, "benchmark "+hc.Benchmark, attribute.String("benchmark", hc.Benchmark))
		return nil
	})
	bus.Register(hooks.PreScenario, "tracing", func(ctx context.Context, hc hooks.Context) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.scenario = t.start(parent(ctx, t.bench), "scenario "+hc.Scenario,
			attribute.String("benchmark", hc.Benchmark),
			attribute.String("scenario", hc.Scenario))
		return nil
	})
	bus.Register(hooks.PreCase, "tracing", func(ctx context.Context, hc hooks.Context) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.current = t.start(parent(ctx, t.scenario), "case "+hc.Case,
			attribute.String("benchmark", hc.Benchmark),
			attribute.String("scenario", hc.Scenario),
			attribute.String("case", hc.Case))
		return nil
	})
	bus.Register(hooks.PostCase, "tracing", func(_ context.Context, hc hooks.Context) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		if r := hc.Result; r != nil && t.current.span != nil {
			t.current.span.SetAttributes(
				attribute.Int("count", r.Count),
				attribute.Int64("mean_ns", r.Mean.Nanoseconds()),
				attribute.Int64("median_ns", r.Median.Nanoseconds()),
				attribute.Int64("p95_ns", r.P95.Nanoseconds()),
				attribute.Float64("cv", r.CV),
				attribute.Float64("ops_per_sec", r.OpsPerSec),
			)
		}
		t.current.end(nil)
		return nil
	})
	bus.Register(hooks.PostScenario, "tracing", func(_ context.Context, hc hooks.Context) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.scenario.span != nil {
			t.scenario.span.SetAttributes(attribute.Int("cases", len(hc.Results)))
		}
		t.scenario.end(nil)
		return nil
	})
	bus.Register(hooks.PostBenchmark, "tracing", func(context.Context, hooks.Context) error {
		t.mu.Lock()
		defer t.mu.Unlock()
		t.bench.end(nil)
		return nil
	})
}

// Abort ends every open span with err, innermost first. A run that fails
// part way never reaches its post hooks.
func (t *Tracer) Abort(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current.end(err)
	t.scenario.end(err)
	t.bench.end(err)
}

// Shutdown ends open spans and flushes the exporter.
func (t *Tracer) Shutdown(ctx context.Context) error {
	t.Abort(errors.New("run ended before this unit finished"))
	if t.shutdown == nil {
		return nil
	}
	return t.shutdown(ctx)
}

func (t *Tracer) start(ctx context.Context, name string, attrs ...attribute.KeyValue) span {
	ctx, s := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return span{ctx: ctx, span: s}
}

func parent(fallback context.Context, s span) context.Context {
	if s.ctx != nil {
		return s.ctx
	}
	return fallback
}
