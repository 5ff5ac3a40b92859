package adapters

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"benchkit/internal/core"
	"benchkit/internal/stats"
)

// Ranking is one row of a scenario comparison.
type Ranking struct {
	Rank   int
	Result core.CaseResult
	// Relative is Mean / fastest Mean; 1 for the fastest case.
	Relative float64
	// PValue is the Welch t-test p-value against the fastest case; 1 for
	// the fastest itself.
	PValue float64
}

// Rank orders results by mean, fastest first. Ties keep their input order.
func Rank(results []core.CaseResult) []Ranking {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b core.CaseResult) int {
		return cmp.Compare(a.Mean, b.Mean)
	})

	out := make([]Ranking, len(sorted))
	if len(sorted) == 0 {
		return out
	}
	fastest := sorted[0]
	for i, r := range sorted {
		rel := 1.0
		if fastest.Mean > 0 {
			rel = float64(r.Mean) / float64(fastest.Mean)
		}
		p := 1.0
		if i > 0 {
			_, p = stats.WelchTTest(summary(fastest), summary(r))
		}
		out[i] = Ranking{Rank: i + 1, Result: r, Relative: rel, PValue: p}
	}
	return out
}

func summary(r core.CaseResult) stats.Summary {
	return stats.Summary{Mean: r.Mean, StdDev: r.StdDev, N: r.Count}
}

// TableComparator prints a ranked table per scenario.
type TableComparator struct {
	w      io.Writer
	styles Styles
	// Alpha is the significance level below which a difference is marked.
	Alpha float64
}

func NewTableComparator(w io.Writer, color bool) *TableComparator {
	return &TableComparator{w: w, styles: NewStyles(w, color), Alpha: 0.05}
}

func (t *TableComparator) CompareResults(c Comparison) error {
	s := t.styles
	rows := Rank(c.Results)

	nameWidth := len("case")
	for _, r := range rows {
		nameWidth = max(nameWidth, len(r.Result.Name))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", s.Title.Render(fmt.Sprintf("Comparison: %s / %s", c.Benchmark, c.Scenario)))
	fmt.Fprintf(&b, "  %s\n", s.Label.Render(fmt.Sprintf("%-3s %-*s %12s %14s %16s %10s", "#", nameWidth, "case", "mean", "ops/sec", "relative", "p-value")))
	for _, r := range rows {
		rel := "fastest"
		pval := "-"
		if r.Rank > 1 {
			rel = fmt.Sprintf("%.2fx slower", r.Relative)
			pval = fmt.Sprintf("%.4f", r.PValue)
			if r.PValue >= t.Alpha {
				pval += " ~"
			}
		}
		line := fmt.Sprintf("%-3d %-*s %12s %14.1f %16s %10s",
			r.Rank, nameWidth, r.Result.Name, stats.FormatDuration(r.Result.Mean), r.Result.OpsPerSec, rel, pval)
		if r.Rank == 1 {
			line = s.Fastest.Render(line)
		}
		fmt.Fprintf(&b, "  %s\n", line)
	}

	_, err := io.WriteString(t.w, b.String())
	return err
}
