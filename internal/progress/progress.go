// Package progress prints live status lines while a benchmark runs.
package progress

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"benchkit/internal/hooks"
	"benchkit/internal/stats"
)

type Progress struct {
	startTime time.Time
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopped   atomic.Bool
	quiet     bool
	output    io.Writer
	mu        sync.Mutex

	benchmark string
	scenario  string
	current   string
	caseStart time.Time
	done      int
}

func NewProgress(quiet bool) *Progress {
	return &Progress{
		quiet:  quiet,
		output: os.Stderr,
	}
}

func (p *Progress) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.output = w
}

// Attach registers the callbacks that drive p on bus.
func (p *Progress) Attach(bus *hooks.Bus) {
	bus.Register(hooks.PreBenchmark, "progress", func(_ context.Context, hc hooks.Context) error {
		p.mu.Lock()
		p.benchmark = hc.Benchmark
		p.done = 0
		p.mu.Unlock()
		p.Start()
		return nil
	})
	bus.Register(hooks.PreScenario, "progress", func(_ context.Context, hc hooks.Context) error {
		p.mu.Lock()
		p.scenario = hc.Scenario
		p.mu.Unlock()
		p.Printf("scenario %s", hc.Scenario)
		return nil
	})
	bus.Register(hooks.PreCase, "progress", func(_ context.Context, hc hooks.Context) error {
		p.mu.Lock()
		p.current = hc.Case
		p.caseStart = time.Now()
		p.mu.Unlock()
		return nil
	})
	bus.Register(hooks.PostCase, "progress", func(_ context.Context, hc hooks.Context) error {
		p.mu.Lock()
		p.current = ""
		p.done++
		p.mu.Unlock()
		if hc.Result != nil {
			p.Printf("  %s  %s/op  (%d runs)", hc.Case, stats.FormatDuration(hc.Result.Mean), hc.Result.Count)
		}
		return nil
	})
	bus.Register(hooks.PostBenchmark, "progress", func(context.Context, hooks.Context) error {
		p.Stop()
		return nil
	})
}

func (p *Progress) Start() {
	if p.quiet {
		return
	}
	p.stopped.Store(false)
	p.startTime = time.Now()
	p.stopCh = make(chan struct{})
	p.ticker = time.NewTicker(1 * time.Second)
	go p.run(p.ticker, p.stopCh)
}

func (p *Progress) run(ticker *time.Ticker, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.printProgress()
		}
	}
}

func (p *Progress) printProgress() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == "" {
		return
	}
	elapsed := time.Since(p.startTime).Round(time.Second)
	mins := int(elapsed.Minutes())
	secs := int(elapsed.Seconds()) % 60
	fmt.Fprintf(p.output, "\033[K[%02d:%02d] %s > %s > %s (%s) | cases done: %d\r",
		mins, secs, p.benchmark, p.scenario, p.current,
		time.Since(p.caseStart).Round(100*time.Millisecond), p.done)
}

func (p *Progress) Stop() {
	if p.quiet || p.stopped.Swap(true) {
		return
	}
	if p.ticker != nil {
		p.ticker.Stop()
	}
	if p.stopCh != nil {
		close(p.stopCh)
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K")
	p.mu.Unlock()
}

func (p *Progress) Print(message string) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K%s\n", message)
	p.mu.Unlock()
}

func (p *Progress) Printf(format string, args ...any) {
	if p.quiet {
		return
	}
	p.mu.Lock()
	fmt.Fprintf(p.output, "\033[K"+format+"\n", args...)
	p.mu.Unlock()
}
