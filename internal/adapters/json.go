package adapters

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"benchkit/internal/measure"
	"benchkit/internal/stats"
)

// JSONLogger writes one JSON object per case (newline-delimited).
// Durations are integer nanoseconds.
type JSONLogger struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func NewJSONLogger(w io.Writer) *JSONLogger {
	return &JSONLogger{enc: json.NewEncoder(w)}
}

type jsonCase struct {
	Benchmark string             `json:"benchmark"`
	Scenario  string             `json:"scenario"`
	Case      string             `json:"case"`
	Series    string             `json:"series"`
	Count     int                `json:"count"`
	Elapsed   time.Duration      `json:"elapsedNs"`
	OpsPerSec float64            `json:"opsPerSec"`
	Mean      time.Duration      `json:"meanNs"`
	Median    time.Duration      `json:"medianNs"`
	StdDev    time.Duration      `json:"stdDevNs"`
	P95       time.Duration      `json:"p95Ns"`
	CV        float64            `json:"cv"`
	Wall      *stats.Statistics  `json:"wall,omitempty"`
	CPU       *stats.Statistics  `json:"cpu,omitempty"`
	Resources *measure.Resources `json:"resources,omitempty"`
	Histogram *stats.Histogram   `json:"histogram,omitempty"`
}

func (j *JSONLogger) LogCaseResults(r CaseReport) error {
	out := jsonCase{
		Benchmark: r.Benchmark,
		Scenario:  r.Scenario,
		Case:      r.Result.Name,
		Series:    "wall",
		Count:     r.Result.Count,
		OpsPerSec: r.Result.OpsPerSec,
		Mean:      r.Result.Mean,
		Median:    r.Result.Median,
		StdDev:    r.Result.StdDev,
		P95:       r.Result.P95,
		CV:        r.Result.CV,
	}
	if r.PriorityCPU {
		out.Series = "cpu"
	}
	if m := r.Measurement; m != nil {
		out.Elapsed = m.Elapsed
		out.Wall = &m.Wall
		out.CPU = &m.CPU
		out.Resources = &m.Resources
	}
	if len(r.Histogram.Counts) > 0 {
		out.Histogram = &r.Histogram
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	return j.enc.Encode(out)
}
