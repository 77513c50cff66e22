package component

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"

	"github.com/cascadeweb/cascade/pkg/tasklet"
)

// Callable is a bare action reachable from the tree: a plain function or
// method value taking the component it acts on. Rendering a callable
// spawns it as a new task instead of executing it inside the render pass,
// because a blocking Call from within rendering would suspend the pass
// itself.
type Callable func(ctx context.Context, c *Component)

// Renderable is the fallback rendering contract for payloads that render
// themselves and are not covered by a registered view.
type Renderable interface {
	RenderView(ctx context.Context, r Renderer, c *Component, view View) (any, error)
}

// Initializable is the init counterpart of Renderable.
type Initializable interface {
	InitFromURL(ctx context.Context, url []string, c *Component, method string, req *http.Request) error
}

// renderPayload dispatches over the closed set of payload kinds:
// component, task, callable, registered view, Renderable.
func renderPayload(ctx context.Context, payload any, r Renderer, c *Component, view View) (any, error) {
	switch p := payload.(type) {
	case *Component:
		return p.Render(ctx, r, view)
	case Task:
		return renderCallable(ctx, driver(p), r, c)
	case Callable:
		return renderCallable(ctx, p, r, c)
	case func(context.Context, *Component):
		return renderCallable(ctx, p, r, c)
	}

	if fn := DefaultRegistry.lookupView(reflect.TypeOf(payload), view.Name()); fn != nil {
		return fn(ctx, payload, r, c, view)
	}
	if p, ok := payload.(Renderable); ok {
		return p.RenderView(ctx, r, c, view)
	}
	return nil, fmt.Errorf("no view %q registered for payload type %T", view.Name(), payload)
}

// driver turns a task into the callable that is actually scheduled.
func driver(t Task) Callable {
	return func(ctx context.Context, c *Component) {
		if err := Drive(ctx, t, c); err != nil && ctx.Err() == nil {
			slog.Error("task stopped", "component", c.String(), "err", err)
		}
	}
}

// renderCallable spawns the callable as a new task, then re-renders the
// component under the parent scope so the output reflects the state the
// spawned task left behind at its first suspension.
func renderCallable(ctx context.Context, f Callable, r Renderer, c *Component) (any, error) {
	tasklet.Spawn(ctx, func(taskCtx context.Context) {
		f(taskCtx, c)
	})
	return c.Render(ctx, r.Parent(), Inherit)
}

// initPayload mirrors renderPayload for url-to-state restoration, with
// the same unwrap-to-component-first rule.
func initPayload(ctx context.Context, payload any, url []string, c *Component, method string, req *http.Request) error {
	if p, ok := payload.(*Component); ok {
		return p.Init(ctx, url, method, req)
	}

	if fn := DefaultRegistry.lookupInit(reflect.TypeOf(payload)); fn != nil {
		return fn(ctx, payload, url, c, method, req)
	}
	if p, ok := payload.(Initializable); ok {
		return p.InitFromURL(ctx, url, c, method, req)
	}

	if len(url) > 0 {
		return ErrNotFound
	}
	return nil
}
