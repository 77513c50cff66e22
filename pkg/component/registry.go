package component

import (
	"context"
	"net/http"
	"reflect"
	"sync"
)

// RenderFunc renders one payload kind for one view.
type RenderFunc func(ctx context.Context, payload any, r Renderer, c *Component, view View) (any, error)

// InitFunc restores one payload kind from the remaining url segments.
type InitFunc func(ctx context.Context, payload any, url []string, c *Component, method string, req *http.Request) error

// Registry is the capability-keyed dispatch table mapping payload kinds
// to render and init implementations. The core handles components, tasks
// and callables itself; applications register everything else here.
type Registry struct {
	mu    sync.RWMutex
	views map[reflect.Type]map[string]RenderFunc
	inits map[reflect.Type]InitFunc
}

// NewRegistry creates an empty dispatch table.
func NewRegistry() *Registry {
	return &Registry{
		views: make(map[reflect.Type]map[string]RenderFunc),
		inits: make(map[reflect.Type]InitFunc),
	}
}

// DefaultRegistry is the table the package-level Register helpers and the
// render dispatch use. View functions are registered at program init,
// like handlers on http.DefaultServeMux.
var DefaultRegistry = NewRegistry()

// AddView registers fn as the view implementation for the payload type t
// under the given view name. An existing registration is overwritten.
func (reg *Registry) AddView(t reflect.Type, name string, fn RenderFunc) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if reg.views[t] == nil {
		reg.views[t] = make(map[string]RenderFunc)
	}
	reg.views[t][name] = fn
}

// AddInit registers fn as the init implementation for the payload type t.
func (reg *Registry) AddInit(t reflect.Type, fn InitFunc) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.inits[t] = fn
}

func (reg *Registry) lookupView(t reflect.Type, name string) RenderFunc {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.views[t][name]
}

func (reg *Registry) lookupInit(t reflect.Type) InitFunc {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	return reg.inits[t]
}

// RegisterView registers a typed view function for payloads of type T in
// the default registry.
func RegisterView[T any](view View, fn func(ctx context.Context, payload T, r Renderer, c *Component, view View) (any, error)) {
	DefaultRegistry.AddView(reflect.TypeOf((*T)(nil)).Elem(), view.Name(), func(ctx context.Context, payload any, r Renderer, c *Component, view View) (any, error) {
		return fn(ctx, payload.(T), r, c, view)
	})
}

// RegisterInit registers a typed init function for payloads of type T in
// the default registry.
func RegisterInit[T any](fn func(ctx context.Context, payload T, url []string, c *Component, method string, req *http.Request) error) {
	DefaultRegistry.AddInit(reflect.TypeOf((*T)(nil)).Elem(), func(ctx context.Context, payload any, url []string, c *Component, method string, req *http.Request) error {
		return fn(ctx, payload.(T), url, c, method, req)
	})
}
