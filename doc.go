/*
Package cascade is a component-based web framework built around
continuations: a page is a tree of components, and a component can call
another one, suspending itself until the callee answers.

# Concept

Cascade treats a user interface as a tree of wrapped payloads. Each
component renders its payload to an HTML fragment and registers the
callbacks its links and forms trigger. When a component calls another
one it is replaced in place and its task suspends; when the callee
answers, the caller resumes exactly where it stopped, with its previous
appearance restored. Multi-page flows read as straight-line code.

# Key Features

  - Call/Answer: synchronous control transfer between components,
    spanning as many requests as the interaction needs.
  - Tasks: procedural flows driving a component tree, looping at the
    root or answering their parent when nested.
  - Session management: live trees are process-local, coordinated
    across replicas with record stores and distributed locks.
  - Pluggable security: a per-session scope carries the acting user and
    the permission policy.

# Usage

Applications register a factory for their root payload and are
assembled from a configuration file.

	package main

	import (
		"log"
		"net/http"

		"github.com/cascadeweb/cascade"
		"github.com/cascadeweb/cascade/pkg/registry"
	)

	func main() {
		registry.Register("counter", "examples", func() any {
			return &Counter{}
		})

		app, err := cascade.New("counter.yaml")
		if err != nil {
			log.Fatal(err)
		}
		log.Fatal(http.ListenAndServe(":8080", app.Handler()))
	}
*/
package cascade
