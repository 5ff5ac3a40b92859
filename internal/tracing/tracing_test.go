package tracing

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"benchkit/internal/core"
	"benchkit/internal/hooks"
)

func runLifecycle(bus *hooks.Bus) {
	ctx := context.Background()
	hc := hooks.Context{Benchmark: "sorting"}
	bus.Execute(ctx, hooks.PreBenchmark, hc)
	hc.Scenario = "small"
	bus.Execute(ctx, hooks.PreScenario, hc)
	hc.Case = "quick"
	bus.Execute(ctx, hooks.PreCase, hc)
	hc.Result = &core.CaseResult{Name: "quick", Mean: 2 * time.Microsecond, Count: 10, OpsPerSec: 500000}
	bus.Execute(ctx, hooks.PostCase, hc)
	hc.Case, hc.Result = "", nil
	hc.Results = []core.CaseResult{{Name: "quick"}}
	bus.Execute(ctx, hooks.PostScenario, hc)
	bus.Execute(ctx, hooks.PostBenchmark, hooks.Context{Benchmark: "sorting"})
}

func TestTracer_NestsSpans(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	bus := hooks.NewBus()
	New(tp).Attach(bus)
	runLifecycle(bus)

	spans := rec.Ended()
	require.Len(t, spans, 3)
	byName := map[string]sdktrace.ReadOnlySpan{}
	for _, s := range spans {
		byName[s.Name()] = s
	}
	bench, scenario, kase := byName["benchmark sorting"], byName["scenario small"], byName["case quick"]
	require.NotNil(t, bench)
	require.NotNil(t, scenario)
	require.NotNil(t, kase)

	assert.Equal(t, bench.SpanContext().SpanID(), scenario.Parent().SpanID())
	assert.Equal(t, scenario.SpanContext().SpanID(), kase.Parent().SpanID())
	assert.Equal(t, bench.SpanContext().TraceID(), kase.SpanContext().TraceID())

	assert.Contains(t, kase.Attributes(), attribute.Int64("mean_ns", 2000))
	assert.Contains(t, kase.Attributes(), attribute.Int("count", 10))
	assert.Contains(t, scenario.Attributes(), attribute.Int("cases", 1))
}

func TestTracer_AbortEndsOpenSpansWithError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	defer tp.Shutdown(context.Background())

	bus := hooks.NewBus()
	tr := New(tp)
	tr.Attach(bus)

	ctx := context.Background()
	hc := hooks.Context{Benchmark: "b", Scenario: "s", Case: "c"}
	bus.Execute(ctx, hooks.PreBenchmark, hc)
	bus.Execute(ctx, hooks.PreScenario, hc)
	bus.Execute(ctx, hooks.PreCase, hc)

	tr.Abort(errors.New("boom"))
	spans := rec.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "case c", spans[0].Name())
	for _, s := range spans {
		assert.Equal(t, codes.Error, s.Status().Code)
		assert.Equal(t, "boom", s.Status().Description)
	}

	tr.Abort(errors.New("again"))
	assert.Len(t, rec.Ended(), 3, "spans end once")
}

func TestNewFile_WritesSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.json")
	tr, err := NewFile(path, "run-1")
	require.NoError(t, err)

	bus := hooks.NewBus()
	tr.Attach(bus)
	runLifecycle(bus)
	require.NoError(t, tr.Shutdown(context.Background()))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"Name":"case quick"`)
	assert.Contains(t, string(out), "run-1")
}

func TestNewFile_BadPath(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "missing", "trace.json"), "x")
	assert.Error(t, err)
}
