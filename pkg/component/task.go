package component

import "context"

// Task is a reusable control-flow unit managing other components by
// calling them. A Task is a payload, not a component: wrap it into a
// Component to embed it in the tree.
type Task interface {
	// Go performs one cycle of the task's workflow against its component,
	// typically a sequence of Call/Becomes, and returns the cycle result.
	Go(ctx context.Context, c *Component) (any, error)
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func(ctx context.Context, c *Component) (any, error)

func (f TaskFunc) Go(ctx context.Context, c *Component) (any, error) {
	return f(ctx, c)
}

// Drive runs a task against its component. At the tree root (nothing
// called the component) Go runs forever, one iteration per round trip,
// until the context is done or Go fails. When the task was itself
// invoked via Call, Go runs exactly once and its result is answered to
// the caller.
//
// Rendering a Task-wrapped component dispatches Drive, not Go: Drive is
// the entity actually scheduled.
func Drive(ctx context.Context, t Task, c *Component) error {
	if c.rendezvous == nil {
		for {
			if _, err := t.Go(ctx, c); err != nil {
				return err
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}
	}

	v, err := t.Go(ctx, c)
	if err != nil {
		return err
	}
	_, err = c.Answer(v)
	return err
}
