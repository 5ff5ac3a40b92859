package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"benchkit/internal/core"
)

// Option keys understood by the orchestrator.
const (
	KeyIterations  = "defaults.iterations"
	KeyTimeLimit   = "defaults.timeLimit"
	KeyPriorityCPU = "defaults.priorityCpu"
	KeyRate        = "defaults.rate"
	KeyWarmup      = "defaults.warmup"
)

// HookKey returns the config key listing the named hooks for a lifecycle point.
func HookKey(point string) string { return "hooks." + point }

// Builtins are the values used when no other layer sets a key.
const Builtins = `{
  "defaults": {"iterations": 1000, "timeLimit": "10s", "priorityCpu": false, "rate": 0, "warmup": 0},
  "discovery": {"benchmarkDir": ".", "maxDepth": 5},
  "adapters": {"logger": "console", "comparator": "table"}
}`

// Resolver looks keys up with precedence scenario > benchmark > config file >
// built-in. Benchmark and scenario overrides are keyed by the last path
// segment, so "defaults.iterations" is found as "iterations".
type Resolver struct {
	file []byte
}

func NewResolver(cfg *Config) *Resolver {
	return &Resolver{file: cfg.JSON()}
}

// Resolve returns the raw value for key and whether any layer set it.
func (r *Resolver) Resolve(key string, bench, scenario core.Overrides) (any, bool) {
	short := key[strings.LastIndex(key, ".")+1:]
	if v, ok := scenario[short]; ok {
		return v, true
	}
	if v, ok := bench[short]; ok {
		return v, true
	}
	if res := gjson.GetBytes(r.file, key); res.Exists() {
		return res.Value(), true
	}
	if res := gjson.Get(Builtins, key); res.Exists() {
		return res.Value(), true
	}
	return nil, false
}

func (r *Resolver) Int(key string, bench, scenario core.Overrides) (int, error) {
	v, ok := r.Resolve(key, bench, scenario)
	if !ok {
		return 0, nil
	}
	n, err := toInt(v)
	if err != nil {
		return 0, core.Configuration(key, err)
	}
	if n < 0 {
		return 0, core.Configuration(key, fmt.Errorf("must not be negative, got %d", n))
	}
	return n, nil
}

func (r *Resolver) Duration(key string, bench, scenario core.Overrides) (time.Duration, error) {
	v, ok := r.Resolve(key, bench, scenario)
	if !ok {
		return 0, nil
	}
	d, err := toDuration(v)
	if err != nil {
		return 0, core.Configuration(key, err)
	}
	if d < 0 {
		return 0, core.Configuration(key, fmt.Errorf("must not be negative, got %s", d))
	}
	return d, nil
}

func (r *Resolver) Bool(key string, bench, scenario core.Overrides) (bool, error) {
	v, ok := r.Resolve(key, bench, scenario)
	if !ok {
		return false, nil
	}
	b, err := toBool(v)
	if err != nil {
		return false, core.Configuration(key, err)
	}
	return b, nil
}

func (r *Resolver) Float(key string, bench, scenario core.Overrides) (float64, error) {
	v, ok := r.Resolve(key, bench, scenario)
	if !ok {
		return 0, nil
	}
	f, err := toFloat(v)
	if err != nil {
		return 0, core.Configuration(key, err)
	}
	return f, nil
}

func (r *Resolver) String(key string) string {
	v, ok := r.Resolve(key, nil, nil)
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// Strings resolves a list value; a single string is treated as a one-element list.
func (r *Resolver) Strings(key string, bench, scenario core.Overrides) ([]string, error) {
	v, ok := r.Resolve(key, bench, scenario)
	if !ok || v == nil {
		return nil, nil
	}
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, core.Configuration(key, fmt.Errorf("expected strings, got %T", e))
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, core.Configuration(key, fmt.Errorf("expected a list, got %T", v))
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != float64(int(t)) {
			return 0, fmt.Errorf("expected an integer, got %v", t)
		}
		return int(t), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(t))
	}
	return 0, fmt.Errorf("expected an integer, got %T", v)
}

func toDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case time.Duration:
		return t, nil
	case Duration:
		return t.Std(), nil
	case string:
		return parseDuration(strings.TrimSpace(t))
	case int:
		return time.Duration(t) * time.Millisecond, nil
	case int64:
		return time.Duration(t) * time.Millisecond, nil
	case float64:
		return time.Duration(t * float64(time.Millisecond)), nil
	}
	return 0, fmt.Errorf("expected a duration, got %T", v)
}

func toBool(v any) (bool, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(t))
	}
	return false, fmt.Errorf("expected a boolean, got %T", v)
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(t), 64)
	}
	return 0, fmt.Errorf("expected a number, got %T", v)
}
