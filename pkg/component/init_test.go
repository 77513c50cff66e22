package component_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/cascadeweb/cascade/pkg/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// album restores its state from one url segment.
type album struct {
	Name string
}

func (a *album) InitFromURL(ctx context.Context, url []string, c *component.Component, method string, req *http.Request) error {
	if len(url) == 0 {
		return nil
	}
	if len(url) > 1 {
		return component.ErrNotFound
	}
	a.Name = url[0]
	return nil
}

func TestInit_DelegatesToInitializable(t *testing.T) {
	a := &album{}
	c := component.Wrap(a)

	err := c.Init(context.Background(), []string{"holidays"}, http.MethodGet, nil)
	require.NoError(t, err)
	assert.Equal(t, "holidays", a.Name)
}

func TestInit_NotFoundIsASignal(t *testing.T) {
	c := component.Wrap(&album{})

	err := c.Init(context.Background(), []string{"a", "b"}, http.MethodGet, nil)
	assert.ErrorIs(t, err, component.ErrNotFound)
}

func TestInit_UnconsumedURLOnPlainPayload(t *testing.T) {
	c := component.Wrap(&formA{})

	assert.NoError(t, c.Init(context.Background(), nil, http.MethodGet, nil))
	assert.ErrorIs(t, c.Init(context.Background(), []string{"extra"}, http.MethodGet, nil), component.ErrNotFound)
}

func TestInit_RegisteredFuncWins(t *testing.T) {
	type gallery struct{ page string }

	g := &gallery{}
	component.RegisterInit[*gallery](func(ctx context.Context, payload *gallery, url []string, c *component.Component, method string, req *http.Request) error {
		if len(url) != 1 {
			return component.ErrNotFound
		}
		payload.page = url[0]
		return nil
	})

	c := component.Wrap(g)
	require.NoError(t, c.Init(context.Background(), []string{"3"}, http.MethodGet, nil))
	assert.Equal(t, "3", g.page)
}
