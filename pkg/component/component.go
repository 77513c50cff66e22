package component

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cascadeweb/cascade/pkg/tasklet"
)

// Component wraps an arbitrary payload into a node of the rendering tree.
//
// A component is mutated only by the task that currently owns its call
// frame: control transfer through Call/Answer is the exclusion mechanism,
// so no locking is used here.
type Component struct {
	payload   any
	view      View
	urlPrefix string

	rendezvous *tasklet.Rendezvous
	onAnswer   func(any) any
}

type options struct {
	view   View
	url    string
	urlSet bool
}

// Option carries the optional view and url arguments of Wrap, Becomes
// and Call.
type Option func(*options)

// WithView selects the view the component renders with.
func WithView(v View) Option {
	return func(o *options) { o.view = v }
}

// WithURL sets the url fragment prepended to links generated while
// rendering this subtree.
func WithURL(url string) Option {
	return func(o *options) { o.url = url; o.urlSet = true }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Wrap turns any payload into a component. Wrapping a component unwraps
// it first: payloads never nest component-within-component.
func Wrap(payload any, opts ...Option) *Component {
	o := applyOptions(opts)
	return &Component{
		payload:   unwrap(payload),
		view:      o.view,
		urlPrefix: o.url,
	}
}

func unwrap(payload any) any {
	if c, ok := payload.(*Component); ok {
		return c.payload
	}
	return payload
}

// Payload returns the wrapped object.
func (c *Component) Payload() any { return c.payload }

// View returns the component's own view selector.
func (c *Component) View() View { return c.view }

// URLPrefix returns the url fragment for links generated in this subtree.
func (c *Component) URLPrefix() string { return c.urlPrefix }

// Becomes replaces the payload in place. The previous url prefix is kept
// unless WithURL is supplied. Returns the component for chaining.
func (c *Component) Becomes(payload any, opts ...Option) *Component {
	o := applyOptions(opts)
	c.payload = unwrap(payload)
	c.view = o.view
	if o.urlSet {
		c.urlPrefix = o.url
	}
	return c
}

// Call replaces this component by payload and suspends the current task
// until the callee answers, then restores the component to its pre-call
// state and returns the answered value. It must run inside a spawned
// task; the suspension is the only blocking point in the core.
//
// Cancelling ctx releases an abandoned call: the snapshot is restored and
// the context error returned.
func (c *Component) Call(ctx context.Context, payload any, opts ...Option) (any, error) {
	prevPayload := c.payload
	prevView := c.view
	prevURL := c.urlPrefix
	prevRendezvous := c.rendezvous
	prevOnAnswer := c.onAnswer

	c.onAnswer = nil
	c.Becomes(payload, opts...)

	rv := tasklet.NewRendezvous()
	c.rendezvous = rv

	v, err := rv.Await(ctx)

	c.payload = prevPayload
	c.view = prevView
	c.urlPrefix = prevURL
	c.rendezvous = prevRendezvous
	c.onAnswer = prevOnAnswer

	return v, err
}

// Answer delivers the result of the pending call. If a listener is
// installed it receives the value instead of the rendezvous and its
// result is returned. Answering with neither a pending call nor a
// listener fails with ErrAnswerWithoutCall.
func (c *Component) Answer(v any) (any, error) {
	if c.onAnswer != nil {
		return c.onAnswer(v), nil
	}
	if c.rendezvous == nil {
		return nil, ErrAnswerWithoutCall
	}
	if err := c.rendezvous.Deliver(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnswerWithoutCall, err)
	}
	return nil, nil
}

// OnAnswer installs a listener receiving the component's answer. Only one
// listener is active at a time; installing a new one replaces the old.
// Returns the component for chaining.
func (c *Component) OnAnswer(listener func(any) any) *Component {
	c.onAnswer = listener
	return c
}

// Render renders the component under r with an isolated child scope.
// An inherited view resolves to the component's own selector.
func (c *Component) Render(ctx context.Context, r Renderer, view View) (any, error) {
	scope := r.New()
	scope.StartRendering(c, view)
	if view.Inherited() {
		view = c.view
	}
	out, err := renderPayload(ctx, c.payload, scope, c, view)
	if err != nil {
		return nil, err
	}
	return scope.EndRendering(out), nil
}

// Init restores component state from the remaining url segments. It
// returns ErrNotFound when the payload cannot consume them.
func (c *Component) Init(ctx context.Context, url []string, method string, req *http.Request) error {
	return initPayload(ctx, c.payload, url, c, method, req)
}

func (c *Component) String() string {
	return fmt.Sprintf("<component %p on %T>", c, c.payload)
}
