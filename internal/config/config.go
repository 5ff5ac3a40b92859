// Package config loads bench.config files and resolves options across the
// scenario, benchmark, file and built-in layers.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"benchkit/internal/core"
)

// FileNames are the config file names looked up, in order.
var FileNames = []string{"bench.config.yaml", "bench.config.yml", "bench.config.json"}

// Config is the root of a bench.config file. Every section is optional.
type Config struct {
	Defaults   Defaults            `yaml:"defaults"`
	Discovery  Discovery           `yaml:"discovery"`
	Hooks      map[string][]string `yaml:"hooks" validate:"omitempty,dive,keys,oneof=preBenchmark preScenario preCase postCase postScenario postBenchmark,endkeys,dive,required"`
	Adapters   Adapters            `yaml:"adapters"`
	Thresholds *Thresholds         `yaml:"thresholds,omitempty"`

	// Path is where the config was read from; empty for the built-ins.
	Path string `yaml:"-"`
	raw  []byte
}

// Defaults holds measurement options applied when neither the benchmark nor
// the scenario overrides them.
type Defaults struct {
	Iterations  int      `yaml:"iterations" validate:"gte=0"`
	TimeLimit   Duration `yaml:"timeLimit" validate:"gte=0"`
	PriorityCPU bool     `yaml:"priorityCpu"`
	Rate        float64  `yaml:"rate" validate:"gte=0"`
	Warmup      int      `yaml:"warmup" validate:"gte=0"`
}

type Discovery struct {
	BenchmarkDir string `yaml:"benchmarkDir"`
	MaxDepth     int    `yaml:"maxDepth" validate:"gte=0,lte=64"`
}

type Adapters struct {
	Logger     string `yaml:"logger" validate:"omitempty,oneof=console json none"`
	Comparator string `yaml:"comparator" validate:"omitempty,oneof=table none"`
}

// Thresholds are pass/fail limits evaluated over every case result.
// Zero values are not checked.
type Thresholds struct {
	Mean      Duration `yaml:"mean" json:"mean,omitempty" validate:"gte=0"`
	Median    Duration `yaml:"median" json:"median,omitempty" validate:"gte=0"`
	P95       Duration `yaml:"p95" json:"p95,omitempty" validate:"gte=0"`
	CV        float64  `yaml:"cv" json:"cv,omitempty" validate:"gte=0"`
	OpsPerSec float64  `yaml:"opsPerSec" json:"opsPerSec,omitempty" validate:"gte=0"`
}

// Duration accepts either a Go duration string ("250ms") or a bare number
// of milliseconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := parseDuration(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return d, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Find returns the first config file present in dir, or "" when none exists.
func Find(dir string) string {
	for _, name := range FileNames {
		p := filepath.Join(dir, name)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p
		}
	}
	return ""
}

// Load reads and validates a config file. YAML and JSON are both accepted.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.Configuration("reading "+path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, core.Configuration("parsing "+path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// LoadDir loads the config file found in dir, or an empty config when the
// directory has none.
func LoadDir(dir string) (*Config, error) {
	path := Find(dir)
	if path == "" {
		return &Config{raw: []byte("{}")}, nil
	}
	return Load(path)
}

// Parse decodes and validates config bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, err
	}
	if tree == nil {
		tree = map[string]any{}
	}
	raw, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("normalising config: %w", err)
	}
	cfg.raw = raw
	return &cfg, nil
}

// Validate checks field constraints, reporting every violation at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: failed %q constraint (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.Join(errs...)
}

// JSON returns the config as normalised JSON.
func (c *Config) JSON() []byte {
	if c == nil || len(c.raw) == 0 {
		return []byte("{}")
	}
	return c.raw
}
