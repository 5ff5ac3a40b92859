package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"benchkit/internal/adapters"
	"benchkit/internal/config"
	"benchkit/internal/core"
	"benchkit/internal/hooks"
	"benchkit/internal/progress"
	"benchkit/internal/runner"
	"benchkit/internal/tracing"
)

func newRunCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <benchmark>",
		Short: "Run one benchmark by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBenchmark(cmd.Context(), opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.promTextfile, "prom-textfile", "", "write results as Prometheus textfile metrics to this path")
	cmd.Flags().StringVar(&opts.traceFile, "trace-file", "", "export OpenTelemetry spans as JSON to this path")
	return cmd
}

func runBenchmark(ctx context.Context, opts *options, name string) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	resolver := config.NewResolver(cfg)

	logger, err := opts.newLogger()
	if err != nil {
		return err
	}
	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))

	finder, err := opts.newFinder(resolver)
	if err != nil {
		return err
	}
	bench, err := finder.FindByName(name)
	if err != nil {
		return err
	}
	def := bench.Definition
	logger.Info("benchmark found", slog.String("name", def.Name), slog.String("path", bench.Path), slog.String("type", string(bench.Type)))

	bus := hooks.NewBus()
	for _, point := range hooks.Points {
		names, err := resolver.Strings(config.HookKey(string(point)), def.Overrides, nil)
		if err != nil {
			return err
		}
		if err := bus.RegisterNamed(point, names, logger); err != nil {
			return core.Configuration("hooks", err)
		}
	}

	prog := progress.NewProgress(opts.quiet)
	prog.SetOutput(opts.stderr)
	prog.Attach(bus)
	defer prog.Stop()

	var tracer *tracing.Tracer
	if opts.traceFile != "" {
		tracer, err = tracing.NewFile(opts.traceFile, runID)
		if err != nil {
			return err
		}
		tracer.Attach(bus)
		defer func() {
			if err := tracer.Shutdown(context.Background()); err != nil {
				logger.Warn("trace export failed", slog.String("error", err.Error()))
			}
		}()
	}

	collector := adapters.NewCollector()
	reg, err := opts.newAdapters(resolver, collector)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r := runner.New(resolver,
		runner.WithHooks(bus),
		runner.WithAdapters(reg),
		runner.WithLogger(logger),
	)
	runErr := r.Run(ctx, def)
	closeErr := reg.Close()
	if runErr != nil {
		if tracer != nil {
			tracer.Abort(runErr)
		}
		if errors.Is(runErr, context.Canceled) {
			prog.Print("interrupted, partial results above")
			return fmt.Errorf("benchmark %s interrupted: %w", def.Name, runErr)
		}
		return runErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing adapters: %w", closeErr)
	}

	if cfg.Thresholds == nil {
		return nil
	}
	results := adapters.CheckThresholds(cfg.Thresholds, collector.Entries())
	if opts.output == "json" {
		if err := json.NewEncoder(opts.stdout).Encode(map[string]any{"thresholds": results}); err != nil {
			return err
		}
	} else if err := adapters.WriteThresholds(opts.stdout, results, adapters.NewStyles(opts.stdout, opts.color())); err != nil {
		return err
	}
	if !results.Passed {
		return errThresholdFailed
	}
	return nil
}

// newAdapters builds the logger and comparator. --output json replaces the
// configured adapters with NDJSON on stdout; collector always receives
// results so thresholds can be checked afterwards.
func (o *options) newAdapters(resolver *config.Resolver, collector *adapters.Collector) (*adapters.Registry, error) {
	color := o.color()
	loggers := adapters.MultiLogger{collector}

	kind := resolver.String("adapters.logger")
	if o.output == "json" {
		kind = "json"
	}
	switch kind {
	case "console":
		loggers = append(loggers, adapters.NewConsoleLogger(o.stdout, color))
	case "json":
		loggers = append(loggers, adapters.NewJSONLogger(o.stdout))
	case "none", "":
	default:
		return nil, core.Configuration(fmt.Sprintf("unknown logger adapter %q", kind), nil)
	}
	if o.promTextfile != "" {
		loggers = append(loggers, adapters.NewPrometheusLogger(o.promTextfile))
	}

	reg := adapters.NewRegistry()
	reg.SetLogger(loggers)

	switch kind := resolver.String("adapters.comparator"); {
	case o.output == "json", kind == "none", kind == "":
	case kind == "table":
		reg.SetComparator(adapters.NewTableComparator(o.stdout, color))
	default:
		return nil, core.Configuration(fmt.Sprintf("unknown comparator adapter %q", kind), nil)
	}
	return reg, nil
}
