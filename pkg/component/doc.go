// Package component implements the continuation-based component model:
// any value can be wrapped into a Component, embedded in a rendering
// tree, replaced in place with Becomes, or called with Call.
//
// Call looks synchronous from the caller's point of view but suspends the
// current task on a one-shot rendezvous until the callee answers. The
// caller's payload, view and url prefix are snapshotted before the callee
// takes over the node and restored verbatim when the answer arrives, so
// component identity is stable across a call.
package component
