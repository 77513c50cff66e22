package tasklet

import (
	"context"
	"errors"
	"sync"
)

// ErrAlreadyAnswered is returned by Deliver when the rendezvous has
// already been consumed. A rendezvous is one-shot then discarded.
var ErrAlreadyAnswered = errors.New("rendezvous already answered")

// Rendezvous is a one-shot, two-party synchronization point: exactly one
// task awaits it and exactly one delivery resumes that task with a value.
type Rendezvous struct {
	ch chan any

	mu        sync.Mutex
	delivered bool
	owner     *Handle
}

// NewRendezvous creates an unconsumed rendezvous.
func NewRendezvous() *Rendezvous {
	return &Rendezvous{ch: make(chan any, 1)}
}

// Await parks the current task until a value is delivered or ctx is done.
// Context cancellation is the only way out of an abandoned rendezvous;
// the session lifecycle cancels the context when it discards a session.
func (r *Rendezvous) Await(ctx context.Context) (any, error) {
	h := fromContext(ctx)
	r.mu.Lock()
	r.owner = h
	r.mu.Unlock()

	parked.Add(1)
	defer parked.Add(-1)
	if h != nil {
		h.yield()
	}

	select {
	case v := <-r.ch:
		return v, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Deliver resumes the awaiting task with v. Control is handed off: Deliver
// returns only once the resumed task has parked again or finished, so the
// caller observes every side effect of the resumption. A second Deliver
// fails with ErrAlreadyAnswered.
func (r *Rendezvous) Deliver(v any) error {
	r.mu.Lock()
	if r.delivered {
		r.mu.Unlock()
		return ErrAlreadyAnswered
	}
	r.delivered = true
	owner := r.owner
	r.mu.Unlock()

	r.ch <- v
	if owner != nil {
		owner.waitQuiescent()
	}
	return nil
}
