/*
Package ports defines the driven ports (interfaces) for session management.

These interfaces decouple the session manager from external
implementations, allowing it to work with various record stores and
locking backends.

# Key Interfaces

  - SessionStore: persists and loads session records (memory or redis).
  - DistributedLocker: provides distributed locking for handling
    concurrent session access across replicas.
*/
package ports
