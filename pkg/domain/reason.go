package domain

import "fmt"

// Params are path parameters of a destination.
type Params map[string]any

// Query holds query parameters of a destination.
type Query map[string]any

// Redirect is an abort reason asking the caller to navigate elsewhere.
type Redirect struct {
	To     string `json:"to" yaml:"to"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
	Query  Query  `json:"query,omitempty" yaml:"query,omitempty"`
}

func (r *Redirect) String() string {
	return fmt.Sprintf("redirect to %s", r.To)
}

// Cancellation is an abort reason meaning the navigation was deliberately cancelled.
type Cancellation struct{}

func (*Cancellation) String() string {
	return "cancelled"
}

// IsRedirect reports whether reason is a redirect descriptor.
func IsRedirect(reason any) (*Redirect, bool) {
	r, ok := reason.(*Redirect)
	return r, ok && r != nil
}

// IsCancellation reports whether reason is a cancellation marker.
func IsCancellation(reason any) bool {
	c, ok := reason.(*Cancellation)
	return ok && c != nil
}
