package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"benchkit/internal/adapters"
	"benchkit/internal/config"
	"benchkit/internal/core"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List discovered benchmarks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listBenchmarks(opts)
		},
	}
}

type listing struct {
	Name      string             `json:"name"`
	Type      core.BenchmarkType `json:"type"`
	Scenarios int                `json:"scenarios"`
	Cases     int                `json:"cases"`
	Path      string             `json:"path"`
}

func listBenchmarks(opts *options) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	finder, err := opts.newFinder(config.NewResolver(cfg))
	if err != nil {
		return err
	}
	found, err := finder.Discover()
	if err != nil {
		return err
	}

	rows := make([]listing, 0, len(found))
	for _, b := range found {
		rows = append(rows, listing{
			Name:      b.Definition.Name,
			Type:      b.Type,
			Scenarios: len(b.Definition.Scenarios),
			Cases:     len(b.Definition.Cases),
			Path:      b.Path,
		})
	}

	if opts.output == "json" {
		return json.NewEncoder(opts.stdout).Encode(rows)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintln(opts.stdout, "no benchmarks found")
		return err
	}

	s := adapters.NewStyles(opts.stdout, opts.color())
	width := len("NAME")
	for _, r := range rows {
		width = max(width, lipgloss.Width(r.Name))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Title.Render(fmt.Sprintf("%-*s  %-9s  %9s  %5s  %s", width, "NAME", "TYPE", "SCENARIOS", "CASES", "PATH")))
	for _, r := range rows {
		fmt.Fprintf(&b, "%-*s  %-9s  %9d  %5d  %s\n", width, r.Name, r.Type, r.Scenarios, r.Cases, s.Dim.Render(r.Path))
	}
	_, err = fmt.Fprint(opts.stdout, b.String())
	return err
}
