/*
Package session implements session management for component trees.

It provides high-level abstractions for handling concurrent access to
live sessions across multiple replicas, integrating an in-process
session map with distributed locking and record storage adapters.
*/
package session
