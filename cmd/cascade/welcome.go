package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/cascadeweb/cascade/pkg/component"
	"github.com/cascadeweb/cascade/pkg/registry"
)

// welcome is the page served when no configuration file is given.
type welcome struct{}

func (welcome) RenderView(ctx context.Context, r component.Renderer, c *component.Component, view component.View) (any, error) {
	return `<h1>Up and running!</h1>
<p>Pass a configuration file to <code>cascade serve</code> to serve your own application.</p>`, nil
}

func init() {
	registry.Register("welcome", "cascade", func() any {
		return welcome{}
	})
}

// welcomeConfigFile writes the minimal configuration serving the
// built-in welcome application.
func welcomeConfigFile() (string, error) {
	dir, err := os.MkdirTemp("", "cascade-welcome")
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "app.yaml")
	if err := os.WriteFile(path, []byte("application:\n  app: welcome\n"), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
