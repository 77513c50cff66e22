// Package tasklet is the cooperative task substrate the component model
// runs on: lightweight tasks spawned per request or per dispatched action,
// and a one-shot rendezvous used to park a task until another one resumes
// it with a value.
//
// Tasks are goroutines with handoff scheduling on top. Spawn returns only
// once the new task has gone quiescent (returned or parked on a
// rendezvous), and Deliver returns only once the resumed task has gone
// quiescent again. At most one task is making progress on a given
// component subtree at any time, which is what lets the component core
// mutate nodes without locks.
package tasklet
