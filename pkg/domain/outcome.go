package domain

import (
	"fmt"
	"time"
)

// OutcomeStatus classifies how a navigation attempt settled.
type OutcomeStatus string

const (
	StatusCompleted  OutcomeStatus = "completed"  // Both phases ran without abort or failure
	StatusRedirected OutcomeStatus = "redirected" // A hook recorded a Redirect
	StatusCancelled  OutcomeStatus = "cancelled"  // A hook recorded a Cancellation
	StatusAborted    OutcomeStatus = "aborted"    // A hook recorded any other reason
	StatusFailed     OutcomeStatus = "failed"     // A hook failed; the chain was short-circuited
)

// NavigationRequest describes one attempt driven through the full leave/enter pipeline.
// Route IDs are resolved by a RouteLoader and listed outer to inner.
type NavigationRequest struct {
	SessionID  string   `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Path       string   `json:"path" yaml:"path"`
	From       []string `json:"from,omitempty" yaml:"from,omitempty"`
	To         []string `json:"to,omitempty" yaml:"to,omitempty"`
	Components []any    `json:"components,omitempty" yaml:"components,omitempty"`
	Params     Params   `json:"params,omitempty" yaml:"params,omitempty"`
	Query      Query    `json:"query,omitempty" yaml:"query,omitempty"`

	// Attempt starts at 1 and grows on each retry.
	Attempt int    `json:"attempt,omitempty" yaml:"attempt,omitempty"`
	RetryOf string `json:"retry_of,omitempty" yaml:"retry_of,omitempty"`
}

// Step records a single hook invocation of an attempt.
type Step struct {
	Phase      Phase         `json:"phase"`
	RouteID    string        `json:"route_id"`
	Index      int           `json:"index"`
	Convention Convention    `json:"convention"`
	Result     any           `json:"result,omitempty"`
	Error      string        `json:"error,omitempty"`
	Aborted    bool          `json:"aborted,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Outcome is the aggregated result of a navigation attempt.
type Outcome struct {
	ID      string            `json:"id"`
	Request NavigationRequest `json:"request"`
	Status  OutcomeStatus     `json:"status"`

	// Phase is the phase that settled the attempt.
	Phase Phase `json:"phase"`

	Result   any       `json:"result,omitempty"`
	Redirect *Redirect `json:"redirect,omitempty"`
	Reason   string    `json:"reason,omitempty"`
	Error    string    `json:"error,omitempty"`
	Trace    []Step    `json:"trace,omitempty"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Not persisted.
	Err         error `json:"-"`
	AbortReason any   `json:"-"`
}

// Fail marks the outcome as failed during phase.
func (o *Outcome) Fail(phase Phase, err error) {
	o.Status = StatusFailed
	o.Phase = phase
	o.Err = err
	o.Error = err.Error()
}

// AbortWith marks the outcome according to the abort reason recorded during phase.
func (o *Outcome) AbortWith(phase Phase, reason any) {
	o.Phase = phase
	o.AbortReason = reason
	o.Status = ClassifyAbort(reason)
	switch o.Status {
	case StatusRedirected:
		o.Redirect, _ = IsRedirect(reason)
	case StatusCancelled:
		o.Reason = "cancelled"
	default:
		o.Reason = fmt.Sprint(reason)
	}
}

// Complete marks the outcome as completed with the enter phase result.
func (o *Outcome) Complete(result any) {
	o.Status = StatusCompleted
	o.Phase = PhaseEnter
	o.Result = result
}

// Settled reports whether the outcome reached a terminal status.
func (o *Outcome) Settled() bool {
	return o.Status != ""
}

// ClassifyAbort maps an abort reason to the status a caller acts upon.
func ClassifyAbort(reason any) OutcomeStatus {
	if _, ok := IsRedirect(reason); ok {
		return StatusRedirected
	}
	if IsCancellation(reason) {
		return StatusCancelled
	}
	return StatusAborted
}
