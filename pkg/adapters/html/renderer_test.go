package html_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cascadeweb/cascade/pkg/adapters/html"
	"github.com/cascadeweb/cascade/pkg/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sink struct {
	next    int
	actions map[string]func(ctx context.Context) error
}

func newSink() *sink {
	return &sink{actions: map[string]func(ctx context.Context) error{}}
}

func (s *sink) RegisterAction(fn func(ctx context.Context) error) string {
	s.next++
	id := fmt.Sprintf("a%d", s.next)
	s.actions[id] = fn
	return id
}

// counter renders a value with an increment link.
type counter struct {
	value int
}

func (c *counter) RenderView(ctx context.Context, r component.Renderer, self *component.Component, view component.View) (any, error) {
	h := r.(*html.Renderer)
	link := h.Link("+", func(ctx context.Context) error {
		c.value++
		return nil
	})
	return fmt.Sprintf("<span>%d</span>%s", c.value, link), nil
}

// pair renders two nested components side by side.
type pair struct {
	left, right *component.Component
}

func (p *pair) RenderView(ctx context.Context, r component.Renderer, self *component.Component, view component.View) (any, error) {
	left, err := p.left.Render(ctx, r, component.Inherit)
	if err != nil {
		return nil, err
	}
	right, err := p.right.Render(ctx, r, component.Inherit)
	if err != nil {
		return nil, err
	}
	return fmt.Sprint(left, right), nil
}

func TestRenderer_ScopesAndLinks(t *testing.T) {
	s := newSink()
	root := component.Wrap(&pair{
		left:  component.Wrap(&counter{value: 1}),
		right: component.Wrap(&counter{value: 2}),
	})

	out, err := root.Render(context.Background(), html.NewRenderer(s), component.Inherit)
	require.NoError(t, err)
	page := out.(string)

	assert.Contains(t, page, `<div id="s.1">`)
	assert.Contains(t, page, `<div id="s.1.1">`)
	assert.Contains(t, page, `<div id="s.1.2">`)
	assert.Contains(t, page, "<span>1</span>")
	assert.Contains(t, page, "<span>2</span>")

	// Each counter registered its own action.
	require.Len(t, s.actions, 2)
	assert.Contains(t, page, `href="?_action=a1"`)
	assert.Contains(t, page, `href="?_action=a2"`)
}

func TestRenderer_ActionsMutateTheirOwnComponent(t *testing.T) {
	s := newSink()
	left := &counter{value: 1}
	right := &counter{value: 2}
	root := component.Wrap(&pair{
		left:  component.Wrap(left),
		right: component.Wrap(right),
	})

	_, err := root.Render(context.Background(), html.NewRenderer(s), component.Inherit)
	require.NoError(t, err)

	require.NoError(t, s.actions["a2"](context.Background()))
	assert.Equal(t, 1, left.value)
	assert.Equal(t, 3, right.value)
}

func TestRenderer_URLPrefixFlowsIntoLinks(t *testing.T) {
	s := newSink()
	root := component.Wrap(&counter{}, component.WithURL("todo"))

	out, err := root.Render(context.Background(),
		html.NewRenderer(s, html.WithBaseURL("/app")), component.Inherit)
	require.NoError(t, err)

	assert.Contains(t, out.(string), `href="/app/todo?_action=a1"`)
}

func TestRenderer_NilSinkDisablesLinks(t *testing.T) {
	root := component.Wrap(&counter{value: 7})

	out, err := root.Render(context.Background(), html.NewRenderer(nil), component.Inherit)
	require.NoError(t, err)

	assert.Contains(t, out.(string), `href="#"`)
}

func TestRenderer_EscapesNonHTMLOutput(t *testing.T) {
	r := html.NewRenderer(nil)
	scope := r.New().(*html.Renderer)

	assert.Equal(t, `<div id="s.1">&lt;b&gt;raw&lt;/b&gt;</div>`,
		scope.EndRendering(rawValue("<b>raw</b>")))
}

type rawValue string
