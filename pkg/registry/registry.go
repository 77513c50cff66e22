// Package registry maps application names to root object factories.
// Applications register themselves at init; the configuration layer
// resolves the [application] app name against this table when it
// assembles an App.
package registry

import (
	"fmt"
	"sync"
)

// Factory builds the root payload of an application tree.
type Factory func() any

type entry struct {
	project string
	factory Factory
}

// Registry manages the available application factories.
type Registry struct {
	mu   sync.RWMutex
	apps map[string]entry
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{apps: make(map[string]entry)}
}

// Default is the process-wide registry applications register into.
var Default = NewRegistry()

// Register adds an application factory under name, recording the project
// (distribution) that owns it. An existing registration is overwritten.
func (r *Registry) Register(name, project string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[name] = entry{project: project, factory: factory}
}

// Load resolves an application by name, returning its factory and owning
// project. Returns an error if the name is not registered.
func (r *Registry) Load(name string) (Factory, string, error) {
	r.mu.RLock()
	e, ok := r.apps[name]
	r.mu.RUnlock()

	if !ok {
		return nil, "", fmt.Errorf("application not registered: %s", name)
	}
	return e.factory, e.project, nil
}

// Names lists the registered application names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.apps))
	for name := range r.apps {
		names = append(names, name)
	}
	return names
}

// Register adds an application factory to the default registry.
func Register(name, project string, factory Factory) {
	Default.Register(name, project, factory)
}

// Load resolves an application from the default registry.
func Load(name string) (Factory, string, error) {
	return Default.Load(name)
}
