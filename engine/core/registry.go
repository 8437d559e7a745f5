package core

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds the process-wide engine set. It is populated during
// startup and read-only afterwards.
type Registry struct {
	mu      sync.RWMutex
	engines map[string]Engine
}

func NewRegistry() *Registry {
	return &Registry{engines: make(map[string]Engine)}
}

// Register adds an engine under its Name. Duplicate names fail fast so a
// wiring mistake cannot silently shadow an engine.
func (r *Registry) Register(e Engine) error {
	if e == nil {
		return fmt.Errorf("cannot register nil engine")
	}
	name := e.Name()
	if name == "" {
		return fmt.Errorf("cannot register engine with empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.engines[name]; exists {
		return fmt.Errorf("engine already registered: %s", name)
	}
	r.engines[name] = e
	return nil
}

// MustRegister registers a set of engines and panics on any failure. Used
// only during startup wiring.
func (r *Registry) MustRegister(engines ...Engine) {
	for _, e := range engines {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
}

// Get resolves an engine by name.
func (r *Registry) Get(name string) (Engine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.engines[name]
	if !ok {
		return nil, UnknownEngineError(name)
	}
	return e, nil
}

// Names returns the registered engine names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.engines))
	for name := range r.engines {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Descriptors returns name and description for every registered engine,
// sorted by name.
func (r *Registry) Descriptors() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.engines))
	for _, e := range r.engines {
		out = append(out, Descriptor{Name: e.Name(), Description: e.Description()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len reports the number of registered engines.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.engines)
}
