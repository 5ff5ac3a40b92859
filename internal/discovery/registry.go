package discovery

import (
	"sort"
	"sync"

	"benchkit/internal/core"
)

// Registry maps the function and generator names used in manifests to Go
// implementations.
type Registry struct {
	mu         sync.RWMutex
	funcs      map[string]core.CaseFunc
	generators map[string]core.PayloadFunc
}

func NewRegistry() *Registry {
	return &Registry{
		funcs:      make(map[string]core.CaseFunc),
		generators: make(map[string]core.PayloadFunc),
	}
}

// Register binds name to fn, replacing any earlier binding.
func (r *Registry) Register(name string, fn core.CaseFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[name] = fn
}

func (r *Registry) RegisterGenerator(name string, fn core.PayloadFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = fn
}

func (r *Registry) Func(name string) (core.CaseFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[name]
	return fn, ok
}

func (r *Registry) Generator(name string) (core.PayloadFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.generators[name]
	return fn, ok
}

// Names lists registered function names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
