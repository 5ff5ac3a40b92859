// Package core holds the types shared by the measurement engine, the
// orchestrator and the collaborators that feed them.
package core

import (
	"context"
	"time"
)

// BenchmarkType identifies how the cases of a benchmark are executed.
type BenchmarkType string

const (
	TypeFunctions BenchmarkType = "functions"
	TypeHTTP      BenchmarkType = "http"
)

// Input is the single argument handed to a case function.
type Input struct {
	Params  any
	Payload any
}

// CaseFunc is a unit of work under measurement. It must return only when
// its work is complete.
type CaseFunc func(ctx context.Context, in Input) (any, error)

// PayloadFunc produces the payload shared by every case of a scenario.
type PayloadFunc func(ctx context.Context, sc Scenario) (any, error)

// Overrides maps option names (iterations, timeLimit, priorityCpu, rate, ...)
// to values set by a benchmark or a scenario.
type Overrides map[string]any

type Case struct {
	Name string
	Fn   CaseFunc
}

type Scenario struct {
	Name      string
	Params    any
	Overrides Overrides
}

// Definition is a user benchmark. It is never mutated by the engine.
type Definition struct {
	Name      string
	Cases     []Case
	Scenarios []Scenario
	Generate  PayloadFunc
	Overrides Overrides
}

// DiscoveredBenchmark pairs a loaded Definition with where it came from.
type DiscoveredBenchmark struct {
	Path       string
	Type       BenchmarkType
	Definition *Definition
}

// CaseResult is the per-case summary kept for one scenario.
type CaseResult struct {
	Name      string        `json:"name"`
	Mean      time.Duration `json:"mean"`
	Median    time.Duration `json:"median"`
	StdDev    time.Duration `json:"stdDev"`
	P95       time.Duration `json:"p95"`
	CV        float64       `json:"cv"`
	OpsPerSec float64       `json:"opsPerSec"`
	Count     int           `json:"count"`
}
