// Package ratelimit paces calls to a measured function.
package ratelimit

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// Pacer spaces calls evenly at a target rate. A zero or negative rate
// disables pacing.
type Pacer struct {
	limiter *rate.Limiter
	mu      sync.RWMutex
}

func NewPacer(perSecond float64) *Pacer {
	p := &Pacer{}
	p.SetRate(perSecond)
	return p
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	limiter := p.limiter
	p.mu.RUnlock()

	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

// SetRate changes the target rate. Burst is fixed at one call so bursts of
// back-to-back invocations never skew a measurement.
func (p *Pacer) SetRate(perSecond float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if perSecond <= 0 {
		p.limiter = nil
		return
	}
	p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
}

// Rate returns the configured calls per second, zero when unpaced.
func (p *Pacer) Rate() float64 {
	if p == nil {
		return 0
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.limiter == nil {
		return 0
	}
	return float64(p.limiter.Limit())
}
