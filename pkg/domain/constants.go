package domain

// Phase identifies which hook chain is running.
type Phase string

const (
	PhaseLeave Phase = "leave"
	PhaseEnter Phase = "enter"
)

// Convention identifies how a hook settles its step.
type Convention string

const (
	// ConventionSync hooks return their result (or an Awaitable) directly.
	ConventionSync Convention = "sync"
	// ConventionCallback hooks settle their step by invoking Done.
	ConventionCallback Convention = "callback"
)

// DefaultAbortReason is recorded when Abort is called with a falsy reason.
const DefaultAbortReason = "ABORT"
