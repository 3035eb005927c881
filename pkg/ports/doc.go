/*
Package ports defines the driven ports (interfaces) for the passage engine.

These interfaces decouple the hook runner from external implementations, allowing
the engine to resolve routes from various catalogs and persist navigation
outcomes in various backends.

# Key Interfaces

  - RouteLoader: Resolves route IDs into executable domain.Route values (e.g., from Loam, a file or Memory).
  - OutcomeStore: Persists and loads navigation outcomes.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
  - Navigator: The engine surface consumed by driving adapters (HTTP, MCP).
*/
package ports
