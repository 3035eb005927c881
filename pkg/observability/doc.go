/*
Package observability provides tools for monitoring the passage engine.

It turns the engine lifecycle hooks into Prometheus metrics and structured log
records. Both are plain domain.LifecycleHooks values and can be combined with
domain.ChainHooks.
*/
package observability
