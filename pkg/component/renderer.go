package component

// Renderer is the contract the render dispatch drives. Each component
// subtree renders under a child scope obtained from New, so every
// subtree gets an isolated link/state namespace.
type Renderer interface {
	// New returns a child rendering scope of the same kind.
	New() Renderer

	// Parent returns the enclosing scope. The dispatch re-renders under
	// it after spawning a bare callable.
	Parent() Renderer

	// StartRendering notifies the scope that rendering starts for the
	// component with the given view.
	StartRendering(c *Component, view View)

	// EndRendering folds the produced output through the scope before it
	// is returned to the parent.
	EndRendering(output any) any
}
