package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"benchkit/internal/config"
	"benchkit/internal/core"
	"benchkit/internal/discovery"
	"benchkit/internal/httpcase"
	"benchkit/internal/samples"
)

// errThresholdFailed marks a run that completed but broke a threshold.
var errThresholdFailed = errors.New("threshold check failed")

type options struct {
	configPath   string
	dir          string
	output       string
	quiet        bool
	verbose      bool
	noColor      bool
	promTextfile string
	traceFile    string
	logLevel     string
	logFormat    string

	stdout io.Writer
	stderr io.Writer
}

// execute runs the CLI and maps the outcome to an exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	opts := &options{stdout: stdout, stderr: stderr}
	root := newRootCmd(opts)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(context.Background())
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, errThresholdFailed):
		if opts.output == "text" {
			fmt.Fprintln(stderr, "\nThreshold check failed!")
		}
		return ExitThresholdFailed
	}
	fmt.Fprintln(stderr, "error:", core.FormatErrorMessage(err))
	return ExitError
}

func newRootCmd(opts *options) *cobra.Command {
	root := &cobra.Command{
		Use:           "benchkit",
		Short:         "Measure and compare Go functions and HTTP endpoints",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != "text" && opts.output != "json" {
				return core.Configuration(fmt.Sprintf("--output must be 'text' or 'json', got %q", opts.output), nil)
			}
			return nil
		},
	}

	f := root.PersistentFlags()
	f.StringVar(&opts.configPath, "config", "", "path to bench.config.yaml (default: looked up in the working directory)")
	f.StringVar(&opts.dir, "dir", "", "directory to search for manifests (overrides discovery.benchmarkDir)")
	f.StringVar(&opts.output, "output", "text", "output format: text, json")
	f.BoolVar(&opts.quiet, "quiet", false, "suppress progress output")
	f.BoolVar(&opts.verbose, "verbose", false, "log HTTP requests and responses")
	f.BoolVar(&opts.noColor, "no-color", false, "disable coloured output")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format: text, json")

	root.AddCommand(newRunCmd(opts), newListCmd(opts), newServeCmd(opts))
	return root
}

func (o *options) loadConfig() (*config.Config, error) {
	if o.configPath != "" {
		return config.Load(o.configPath)
	}
	return config.LoadDir(".")
}

func (o *options) newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(o.logLevel)); err != nil {
		return nil, core.Configuration("--log-level", err)
	}
	handlerOpts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(o.logFormat) {
	case "text":
		return slog.New(slog.NewTextHandler(o.stderr, handlerOpts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(o.stderr, handlerOpts)), nil
	}
	return nil, core.Configuration(fmt.Sprintf("--log-format must be 'text' or 'json', got %q", o.logFormat), nil)
}

// color reports whether stdout should be styled.
func (o *options) color() bool {
	if o.noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := o.stdout.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

func (o *options) newFinder(resolver *config.Resolver) (*discovery.Finder, error) {
	dir := o.dir
	if dir == "" {
		dir = resolver.String("discovery.benchmarkDir")
	}
	depth, err := resolver.Int("discovery.maxDepth", nil, nil)
	if err != nil {
		return nil, err
	}
	registry := discovery.NewRegistry()
	samples.Register(registry)

	var finderOpts []discovery.Option
	if o.verbose {
		finderOpts = append(finderOpts, discovery.WithDebug(httpcase.NewDebugLogger(o.stderr)))
	}
	return discovery.NewFinder(dir, depth, registry, finderOpts...), nil
}
