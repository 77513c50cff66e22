package tasklet

import (
	"context"
	"sync/atomic"
)

var (
	running atomic.Int64
	parked  atomic.Int64
)

// Running returns the number of spawned tasks that have not finished yet.
func Running() int64 { return running.Load() }

// Parked returns the number of tasks currently blocked on a rendezvous.
func Parked() int64 { return parked.Load() }

// Handle tracks a spawned task.
type Handle struct {
	done    chan struct{}
	yielded chan struct{}
}

type handleKey struct{}

// Spawn runs fn as a new task and returns once fn has either returned or
// parked on a rendezvous. The context passed to fn carries the task
// handle; Rendezvous.Await uses it to signal the suspension back.
//
// This is the "run until first block" contract a render pass relies on: a
// dispatched action that replaces a component and suspends has already
// done the replacement by the time Spawn returns.
func Spawn(ctx context.Context, fn func(context.Context)) *Handle {
	h := &Handle{
		done:    make(chan struct{}),
		yielded: make(chan struct{}, 1),
	}
	ctx = context.WithValue(ctx, handleKey{}, h)

	running.Add(1)
	go func() {
		defer running.Add(-1)
		defer close(h.done)
		fn(ctx)
	}()

	h.waitQuiescent()
	return h
}

// Done is closed when the task function has returned.
func (h *Handle) Done() <-chan struct{} { return h.done }

// waitQuiescent blocks until the task parks or finishes.
func (h *Handle) waitQuiescent() {
	select {
	case <-h.done:
	case <-h.yielded:
	}
}

// yield signals whoever is waiting for this task to go quiescent. Each
// park produces exactly one token and each resumer consumes exactly one,
// so the non-blocking send never drops a needed signal.
func (h *Handle) yield() {
	select {
	case h.yielded <- struct{}{}:
	default:
	}
}

func fromContext(ctx context.Context) *Handle {
	h, _ := ctx.Value(handleKey{}).(*Handle)
	return h
}
