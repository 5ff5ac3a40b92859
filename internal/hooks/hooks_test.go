package hooks

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"benchkit/internal/core"
)

func TestBus_ExecuteInOrder(t *testing.T) {
	bus := NewBus()
	var order []string
	for _, id := range []string{"a", "b", "c"} {
		bus.Register(PreCase, id, func(context.Context, Context) error {
			order = append(order, id)
			return nil
		})
	}

	outcomes := bus.Execute(context.Background(), PreCase, Context{Case: "x"})

	assert.Equal(t, []string{"a", "b", "c"}, order)
	require.Len(t, outcomes, 3)
	assert.Empty(t, Failed(outcomes))
}

func TestBus_FailureDoesNotStopOthers(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	ran := 0
	bus.Register(PostCase, "fails", func(context.Context, Context) error { return boom })
	bus.Register(PostCase, "panics", func(context.Context, Context) error { panic("oops") })
	bus.Register(PostCase, "ok", func(context.Context, Context) error { ran++; return nil })

	outcomes := bus.Execute(context.Background(), PostCase, Context{})

	assert.Equal(t, 1, ran)
	failed := Failed(outcomes)
	require.Len(t, failed, 2)
	assert.Equal(t, "fails", failed[0].ID)
	assert.ErrorIs(t, failed[0].Err, boom)
	assert.Equal(t, "panics", failed[1].ID)
	assert.Contains(t, failed[1].Err.Error(), "oops")
}

func TestBus_NoHooks(t *testing.T) {
	assert.Nil(t, NewBus().Execute(context.Background(), PreBenchmark, Context{}))

	var nilBus *Bus
	assert.Nil(t, nilBus.Execute(context.Background(), PreBenchmark, Context{}))
}

func TestBus_PassesContext(t *testing.T) {
	bus := NewBus()
	var got Context
	bus.Register(PostCase, "capture", func(_ context.Context, hc Context) error {
		got = hc
		return nil
	})

	result := &core.CaseResult{Name: "fast"}
	bus.Execute(context.Background(), PostCase, Context{Benchmark: "b", Scenario: "s", Case: "fast", Result: result})

	assert.Equal(t, "b", got.Benchmark)
	assert.Same(t, result, got.Result)
}

func TestRegisterNamed(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	bus := NewBus()

	require.NoError(t, bus.RegisterNamed(PreCase, []string{"gc", "log"}, logger))
	assert.Equal(t, 2, bus.Count(PreCase))

	outcomes := bus.Execute(context.Background(), PreCase, Context{Benchmark: "sorting", Case: "quick"})
	assert.Empty(t, Failed(outcomes))
	assert.Contains(t, buf.String(), "point=preCase")
	assert.Contains(t, buf.String(), "case=quick")
}

func TestRegisterNamed_Unknown(t *testing.T) {
	err := NewBus().RegisterNamed(PreCase, []string{"teleport"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teleport")
	assert.Equal(t, []string{"gc", "log"}, BuiltinNames())
}
