package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
)

// builtins are the hooks selectable by name from the config file.
var builtins = map[string]func(point Point, logger *slog.Logger) Func{
	"gc": func(Point, *slog.Logger) Func {
		return func(context.Context, Context) error {
			runtime.GC()
			return nil
		}
	},
	"log": func(point Point, logger *slog.Logger) Func {
		return func(ctx context.Context, hc Context) error {
			attrs := []any{slog.String("point", string(point)), slog.String("benchmark", hc.Benchmark)}
			if hc.Scenario != "" {
				attrs = append(attrs, slog.String("scenario", hc.Scenario))
			}
			if hc.Case != "" {
				attrs = append(attrs, slog.String("case", hc.Case))
			}
			if hc.Result != nil {
				attrs = append(attrs, slog.Duration("mean", hc.Result.Mean), slog.Float64("ops_per_sec", hc.Result.OpsPerSec))
			}
			logger.InfoContext(ctx, "lifecycle", attrs...)
			return nil
		}
	},
}

// BuiltinNames lists the hooks available to RegisterNamed.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterNamed registers the built-in hooks listed in names at point.
func (b *Bus) RegisterNamed(point Point, names []string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	for _, name := range names {
		mk, ok := builtins[name]
		if !ok {
			return fmt.Errorf("unknown hook %q at %s (available: %v)", name, point, BuiltinNames())
		}
		b.Register(point, name, mk(point, logger))
	}
	return nil
}
