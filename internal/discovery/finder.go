// Package discovery finds benchmark manifests on disk and turns them into
// runnable definitions.
package discovery

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"benchkit/internal/core"
	"benchkit/internal/data"
	"benchkit/internal/httpcase"
)

// DefaultMaxDepth bounds the directory walk when no depth is configured.
const DefaultMaxDepth = 5

// errStop ends a walk early once a named benchmark is found.
var errStop = errors.New("stop")

// Finder scans a directory tree for manifest files.
type Finder struct {
	dir      string
	maxDepth int
	registry *Registry
	client   *http.Client
	debug    *httpcase.DebugLogger
}

type Option func(*Finder)

// WithHTTPClient sets the client shared by HTTP cases.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Finder) { f.client = c }
}

func WithDebug(d *httpcase.DebugLogger) Option {
	return func(f *Finder) { f.debug = d }
}

// NewFinder returns a Finder rooted at dir. A negative maxDepth means
// DefaultMaxDepth; zero scans dir itself only.
func NewFinder(dir string, maxDepth int, registry *Registry, opts ...Option) *Finder {
	if dir == "" {
		dir = "."
	}
	if maxDepth < 0 {
		maxDepth = DefaultMaxDepth
	}
	if registry == nil {
		registry = NewRegistry()
	}
	f := &Finder{dir: dir, maxDepth: maxDepth, registry: registry}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = httpcase.NewClient()
	}
	return f
}

// Discover returns every benchmark under the root, in walk order.
func (f *Finder) Discover() ([]core.DiscoveredBenchmark, error) {
	var found []core.DiscoveredBenchmark
	err := f.walk(f.dir, 0, func(b core.DiscoveredBenchmark) error {
		found = append(found, b)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

// FindByName returns the first benchmark called name. The error wraps
// core.ErrNotFound when no manifest declares it.
func (f *Finder) FindByName(name string) (core.DiscoveredBenchmark, error) {
	var hit core.DiscoveredBenchmark
	err := f.walk(f.dir, 0, func(b core.DiscoveredBenchmark) error {
		if b.Definition.Name != name {
			return nil
		}
		hit = b
		return errStop
	})
	switch {
	case errors.Is(err, errStop):
		return hit, nil
	case err != nil:
		return core.DiscoveredBenchmark{}, err
	}
	return core.DiscoveredBenchmark{}, core.NotFound(name)
}

func (f *Finder) walk(dir string, depth int, visit func(core.DiscoveredBenchmark) error) error {
	if depth > f.maxDepth {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return core.Discovery(dir, err)
	}
	for _, e := range entries {
		name := e.Name()
		full := filepath.Join(dir, name)
		if e.IsDir() {
			if skipDir(name) {
				continue
			}
			if err := f.walk(full, depth+1, visit); err != nil {
				return err
			}
			continue
		}
		if !isManifest(name) || !manifestExts[strings.ToLower(filepath.Ext(name))] {
			continue
		}
		b, err := f.Load(full)
		if err != nil {
			return err
		}
		if err := visit(b); err != nil {
			return err
		}
	}
	return nil
}

// skipDir excludes hidden and underscore-prefixed directories, as the go
// tool does.
func skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_")
}

// Load reads one manifest file and builds its definition.
func (f *Finder) Load(path string) (core.DiscoveredBenchmark, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return core.DiscoveredBenchmark{}, core.Discovery(path, err)
	}
	m, err := LoadManifest(abs)
	if err != nil {
		return core.DiscoveredBenchmark{}, err
	}
	dir := filepath.Dir(abs)
	def, err := f.Build(m, dir)
	if err != nil {
		return core.DiscoveredBenchmark{}, err
	}
	typ := m.Type
	if typ == "" {
		typ = core.TypeFunctions
	}
	return core.DiscoveredBenchmark{Path: dir, Type: typ, Definition: def}, nil
}

// Build turns a manifest into a definition. Relative data files resolve
// against dir. Case functions missing from the registry are left nil so
// the runner reports them when the case is reached.
func (f *Finder) Build(m *Manifest, dir string) (*core.Definition, error) {
	def := &core.Definition{
		Name:      m.Name,
		Overrides: m.overrides(),
		Cases:     make([]core.Case, 0, len(m.Cases)),
		Scenarios: make([]core.Scenario, 0, len(m.Scenarios)),
	}
	for _, sc := range m.Scenarios {
		def.Scenarios = append(def.Scenarios, core.Scenario{
			Name:      sc.Name,
			Params:    sc.Params,
			Overrides: sc.Overrides,
		})
	}
	for _, c := range m.Cases {
		bc := core.Case{Name: c.Name}
		switch {
		case c.Request != nil:
			bc.Fn = httpcase.New(c.Name, *c.Request, f.client, f.debug).Func()
		case c.Fn != "":
			bc.Fn, _ = f.registry.Func(c.Fn)
		}
		def.Cases = append(def.Cases, bc)
	}

	switch {
	case m.Generator != "" && m.Data != nil:
		return nil, core.InvalidManifest(fmt.Sprintf("%s: generator and data are mutually exclusive", m.Name))
	case m.Generator != "":
		gen, ok := f.registry.Generator(m.Generator)
		if !ok {
			return nil, core.InvalidManifest(fmt.Sprintf("%s: unknown generator %q", m.Name, m.Generator))
		}
		def.Generate = gen
	case m.Data != nil:
		file := m.Data.File
		if !filepath.IsAbs(file) {
			file = filepath.Join(dir, file)
		}
		mode := m.Data.Mode
		if mode == "" {
			mode = data.ModeSequential
		}
		def.Generate = data.Generator(file, mode)
	}
	return def, nil
}
