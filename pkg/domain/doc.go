/*
Package domain contains the core domain models of the Passage hook orchestrator.

It defines the value objects threaded through a navigation attempt: the Transition
and its sticky abort reason, the route entries and their lifecycle hooks, deferred
values returned by hooks and the outcome reported once an attempt settles. This
package is kept free of I/O and persistence concerns.

# Key Entities

  - Transition: one in-flight navigation attempt (path, abort reason, retry).
  - Route: a route entry optionally exposing leave and enter hooks.
  - LeaveHook / EnterHook: sealed variants selecting the calling convention.
  - Redirect / Cancellation: abort reasons interpreted by the caller.
  - Outcome: the aggregated result of a leave/enter pipeline.
*/
package domain
