package adapters

import (
	"fmt"
	"io"
	"strings"
	"time"

	"benchkit/internal/config"
	"benchkit/internal/stats"
)

// ThresholdResult is the outcome of one limit against one case.
type ThresholdResult struct {
	Name      string `json:"name"`
	Passed    bool   `json:"passed"`
	Threshold string `json:"threshold"`
	Actual    string `json:"actual"`
}

// ThresholdResults holds every check of a run.
type ThresholdResults struct {
	Passed  bool              `json:"passed"`
	Results []ThresholdResult `json:"results"`
}

// CheckThresholds evaluates t against every entry. A nil t always passes.
func CheckThresholds(t *config.Thresholds, entries []Entry) *ThresholdResults {
	results := &ThresholdResults{Passed: true}
	if t == nil {
		return results
	}

	for _, e := range entries {
		prefix := fmt.Sprintf("%s/%s/%s", e.Benchmark, e.Scenario, e.Result.Name)
		results.checkDuration(prefix+" mean", t.Mean.Std(), e.Result.Mean)
		results.checkDuration(prefix+" median", t.Median.Std(), e.Result.Median)
		results.checkDuration(prefix+" p95", t.P95.Std(), e.Result.P95)

		if t.CV > 0 {
			results.add(ThresholdResult{
				Name:      prefix + " cv",
				Passed:    e.Result.CV <= t.CV,
				Threshold: fmt.Sprintf("<= %.2f%%", t.CV*100),
				Actual:    fmt.Sprintf("%.2f%%", e.Result.CV*100),
			})
		}
		if t.OpsPerSec > 0 {
			results.add(ThresholdResult{
				Name:      prefix + " opsPerSec",
				Passed:    e.Result.OpsPerSec >= t.OpsPerSec,
				Threshold: fmt.Sprintf(">= %.1f", t.OpsPerSec),
				Actual:    fmt.Sprintf("%.1f", e.Result.OpsPerSec),
			})
		}
	}
	return results
}

func (r *ThresholdResults) checkDuration(name string, limit, actual time.Duration) {
	if limit == 0 {
		return
	}
	r.add(ThresholdResult{
		Name:      name,
		Passed:    actual <= limit,
		Threshold: "<= " + stats.FormatDuration(limit),
		Actual:    stats.FormatDuration(actual),
	})
}

func (r *ThresholdResults) add(res ThresholdResult) {
	if !res.Passed {
		r.Passed = false
	}
	r.Results = append(r.Results, res)
}

// Violations returns only the failed checks.
func (r *ThresholdResults) Violations() []ThresholdResult {
	violations := make([]ThresholdResult, 0)
	for _, result := range r.Results {
		if !result.Passed {
			violations = append(violations, result)
		}
	}
	return violations
}

// WriteThresholds prints one line per check.
func WriteThresholds(w io.Writer, r *ThresholdResults, s Styles) error {
	if r == nil || len(r.Results) == 0 {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", s.Title.Render("Thresholds"))
	for _, res := range r.Results {
		symbol := s.Pass.Render("✓")
		if !res.Passed {
			symbol = s.Fail.Render("✗")
		}
		fmt.Fprintf(&b, "  %s %s %s (actual: %s)\n", symbol, res.Name, res.Threshold, res.Actual)
	}
	_, err := io.WriteString(w, b.String())
	return err
}
