package discovery

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"benchkit/internal/config"
	"benchkit/internal/core"
	"benchkit/internal/data"
	"benchkit/internal/httpcase"
)

// Manifest is the on-disk form of a benchmark definition.
type Manifest struct {
	Name        string             `yaml:"name" validate:"required"`
	Description string             `yaml:"description"`
	Type        core.BenchmarkType `yaml:"type" validate:"omitempty,oneof=functions http"`
	Generator   string             `yaml:"generator"`
	Data        *DataSpec          `yaml:"data"`

	Iterations  *int             `yaml:"iterations" validate:"omitempty,gte=0"`
	TimeLimit   *config.Duration `yaml:"timeLimit"`
	PriorityCPU *bool            `yaml:"priorityCpu"`
	Rate        *float64         `yaml:"rate" validate:"omitempty,gte=0"`
	Warmup      *int             `yaml:"warmup" validate:"omitempty,gte=0"`

	Scenarios []ScenarioSpec `yaml:"scenarios" validate:"required,dive"`
	Cases     []CaseSpec     `yaml:"cases" validate:"required,dive"`
}

type DataSpec struct {
	File string    `yaml:"file" validate:"required"`
	Mode data.Mode `yaml:"mode" validate:"omitempty,oneof=sequential random"`
}

type ScenarioSpec struct {
	Name      string         `yaml:"name" validate:"required"`
	Params    any            `yaml:"params"`
	Overrides core.Overrides `yaml:"overrides"`
}

// CaseSpec names either a registered function or an HTTP request.
type CaseSpec struct {
	Name    string            `yaml:"name" validate:"required"`
	Fn      string            `yaml:"fn"`
	Request *httpcase.Request `yaml:"request"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// manifestExts are the manifest extensions that can be decoded.
var manifestExts = map[string]bool{".yaml": true, ".yml": true, ".json": true}

// isManifest reports whether a file name looks like a manifest at all.
func isManifest(name string) bool {
	return strings.HasPrefix(name, "manifest.") && !strings.HasSuffix(name, ".map")
}

// ParseManifest decodes and validates manifest bytes.
func ParseManifest(b []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, core.InvalidManifest(err.Error())
	}
	if err := validate.Struct(&m); err != nil {
		return nil, core.InvalidManifest(describe(err))
	}
	if m.Type == core.TypeHTTP {
		for _, c := range m.Cases {
			if c.Request == nil {
				return nil, core.InvalidManifest(fmt.Sprintf("case %q needs a request block in an http benchmark", c.Name))
			}
		}
	}
	return &m, nil
}

// LoadManifest reads a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	if !manifestExts[strings.ToLower(filepath.Ext(path))] {
		return nil, core.UnsupportedFile(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, core.ModuleLoad(path, err)
	}
	m, err := ParseManifest(b)
	if err != nil {
		var e *core.Error
		if errors.As(err, &e) {
			e.Message = fmt.Sprintf("%s (%s)", e.Message, path)
		}
		return nil, err
	}
	return m, nil
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Manifest.")
		if fe.Tag() == "required" {
			parts = append(parts, field+" is required")
			continue
		}
		parts = append(parts, fmt.Sprintf("%s fails %q (value %v)", field, fe.Tag(), fe.Value()))
	}
	return strings.Join(parts, "; ")
}

// overrides collects the option fields that were set.
func (m *Manifest) overrides() core.Overrides {
	o := core.Overrides{}
	if m.Iterations != nil {
		o["iterations"] = *m.Iterations
	}
	if m.TimeLimit != nil {
		o["timeLimit"] = *m.TimeLimit
	}
	if m.PriorityCPU != nil {
		o["priorityCpu"] = *m.PriorityCPU
	}
	if m.Rate != nil {
		o["rate"] = *m.Rate
	}
	if m.Warmup != nil {
		o["warmup"] = *m.Warmup
	}
	return o
}
