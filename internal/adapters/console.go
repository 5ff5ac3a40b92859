package adapters

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"benchkit/internal/stats"
)

const histogramWidth = 30

// Styles groups the lipgloss styles used by console output. The zero value
// renders plain text.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Fastest lipgloss.Style
	Dim     lipgloss.Style
	Pass    lipgloss.Style
	Fail    lipgloss.Style
}

// NewStyles returns coloured styles bound to w, or plain ones when color is false.
func NewStyles(w io.Writer, color bool) Styles {
	if !color {
		return Styles{}
	}
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Label:   r.NewStyle().Foreground(lipgloss.Color("8")),
		Value:   r.NewStyle().Bold(true),
		Fastest: r.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		Dim:     r.NewStyle().Faint(true),
		Pass:    r.NewStyle().Foreground(lipgloss.Color("10")),
		Fail:    r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}
}

// ConsoleLogger prints a readable block per case.
type ConsoleLogger struct {
	w      io.Writer
	styles Styles
}

func NewConsoleLogger(w io.Writer, color bool) *ConsoleLogger {
	return &ConsoleLogger{w: w, styles: NewStyles(w, color)}
}

func (c *ConsoleLogger) LogCaseResults(r CaseReport) error {
	s := c.styles
	res := r.Result
	series := "wall"
	if r.PriorityCPU {
		series = "cpu"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\n", s.Title.Render(fmt.Sprintf("%s / %s / %s", r.Benchmark, r.Scenario, res.Name)))
	field := func(label, value string) string {
		return s.Label.Render(label) + " " + s.Value.Render(value)
	}
	fmt.Fprintf(&b, "  %s   %s   %s\n",
		field("count", fmt.Sprintf("%d", res.Count)),
		field("elapsed", stats.FormatDuration(elapsed(r))),
		field("ops/sec", fmt.Sprintf("%.1f", res.OpsPerSec)))
	fmt.Fprintf(&b, "  %s   %s   %s   %s   %s\n",
		field("mean", stats.FormatDuration(res.Mean)),
		field("median", stats.FormatDuration(res.Median)),
		field("stddev", stats.FormatDuration(res.StdDev)),
		field("p95", stats.FormatDuration(res.P95)),
		field("cv", fmt.Sprintf("%.1f%%", res.CV*100)))
	if m := r.Measurement; m != nil {
		fmt.Fprintf(&b, "  %s   %s   %s\n",
			field("cpu time", stats.FormatDuration(m.Resources.CPUTime)),
			field("peak mem", stats.FormatBytes(m.Resources.PeakMem)),
			s.Dim.Render("series "+series))
	}
	if len(r.Histogram.Counts) > 0 {
		for _, line := range strings.Split(strings.TrimRight(r.Histogram.Render(histogramWidth), "\n"), "\n") {
			b.WriteString("    " + s.Dim.Render(line) + "\n")
		}
	}

	_, err := io.WriteString(c.w, b.String())
	return err
}

func elapsed(r CaseReport) time.Duration {
	if r.Measurement != nil {
		return r.Measurement.Elapsed
	}
	return 0
}
