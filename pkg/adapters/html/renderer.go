// Package html renders component trees to HTML fragments.
//
// Each component subtree renders under its own scope with a stable
// dotted identifier, so fragments can be addressed and replaced
// individually. Links carry action identifiers registered with the
// session for the duration of one page.
package html

import (
	"context"
	"fmt"
	stdhtml "html"
	"strings"

	"github.com/cascadeweb/cascade/pkg/component"
)

// ActionSink registers page-scoped callbacks and hands back the
// identifier a link or form embeds. The session is the usual sink.
type ActionSink interface {
	RegisterAction(fn func(ctx context.Context) error) string
}

// Renderer implements component.Renderer producing HTML.
type Renderer struct {
	parent  *Renderer
	sink    ActionSink
	baseURL string
	scopeID string

	children int
}

// Option configures the root renderer.
type Option func(*Renderer)

// WithBaseURL sets the url every generated link is relative to.
func WithBaseURL(base string) Option {
	return func(r *Renderer) { r.baseURL = base }
}

// NewRenderer creates a root rendering scope. A nil sink disables
// action links; they render with a dead href.
func NewRenderer(sink ActionSink, opts ...Option) *Renderer {
	r := &Renderer{sink: sink, scopeID: "s"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// New returns a child scope with the next dotted identifier.
func (r *Renderer) New() component.Renderer {
	r.children++
	return &Renderer{
		parent:  r,
		sink:    r.sink,
		baseURL: r.baseURL,
		scopeID: fmt.Sprintf("%s.%d", r.scopeID, r.children),
	}
}

// Parent returns the enclosing scope, or the scope itself at the root.
func (r *Renderer) Parent() component.Renderer {
	if r.parent == nil {
		return r
	}
	return r.parent
}

// StartRendering applies the component's url prefix to the scope's base
// url. The view selector does not affect link generation.
func (r *Renderer) StartRendering(c *component.Component, view component.View) {
	if prefix := c.URLPrefix(); prefix != "" {
		r.baseURL = joinURL(r.baseURL, prefix)
	}
}

// EndRendering wraps the produced fragment in the scope's div.
func (r *Renderer) EndRendering(output any) any {
	return fmt.Sprintf(`<div id=%q>%s</div>`, r.scopeID, asHTML(output))
}

// ScopeID returns the scope's dotted identifier.
func (r *Renderer) ScopeID() string { return r.scopeID }

// ActionURL registers fn and returns the url triggering it.
func (r *Renderer) ActionURL(fn func(ctx context.Context) error) string {
	if r.sink == nil {
		return "#"
	}
	id := r.sink.RegisterAction(fn)
	return r.baseURL + "?_action=" + stdhtml.EscapeString(id)
}

// Link renders an anchor triggering fn when followed.
func (r *Renderer) Link(label string, fn func(ctx context.Context) error) string {
	return fmt.Sprintf(`<a href=%q>%s</a>`, r.ActionURL(fn), stdhtml.EscapeString(label))
}

// ActionField renders the hidden form input carrying the action
// identifier, for forms posting back to the base url.
func (r *Renderer) ActionField(fn func(ctx context.Context) error) string {
	if r.sink == nil {
		return ""
	}
	id := r.sink.RegisterAction(fn)
	return fmt.Sprintf(`<input type="hidden" name="_action" value=%q>`, stdhtml.EscapeString(id))
}

func asHTML(output any) string {
	switch v := output.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return stdhtml.EscapeString(fmt.Sprint(v))
	}
}

func joinURL(base, fragment string) string {
	base = strings.TrimSuffix(base, "/")
	if !strings.HasPrefix(fragment, "/") {
		fragment = "/" + fragment
	}
	return base + fragment
}
