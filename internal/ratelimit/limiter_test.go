package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPacer_ZeroRateDoesNotBlock(t *testing.T) {
	p := NewPacer(0)

	start := time.Now()
	for range 100 {
		require.NoError(t, p.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
	assert.Zero(t, p.Rate())
}

func TestPacer_NilIsUnpaced(t *testing.T) {
	var p *Pacer
	assert.NoError(t, p.Wait(context.Background()))
	assert.Zero(t, p.Rate())
}

func TestPacer_SpacesCalls(t *testing.T) {
	p := NewPacer(50) // one call every 20ms

	start := time.Now()
	for range 4 {
		require.NoError(t, p.Wait(context.Background()))
	}
	// first call is free, the next three wait ~20ms each
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestPacer_ContextCancelled(t *testing.T) {
	p := NewPacer(0.5)
	require.NoError(t, p.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	assert.Error(t, p.Wait(ctx))
}

func TestPacer_SetRate(t *testing.T) {
	p := NewPacer(10)
	assert.Equal(t, 10.0, p.Rate())

	p.SetRate(250)
	assert.Equal(t, 250.0, p.Rate())

	p.SetRate(0)
	assert.Zero(t, p.Rate())
}
