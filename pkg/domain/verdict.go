package domain

// Invocation describes the hook an external guard is asked to decide.
type Invocation struct {
	Phase        Phase  `json:"phase"`
	RouteID      string `json:"route_id"`
	Path         string `json:"path"`
	TransitionID string `json:"transition_id"`
	Params       Params `json:"params,omitempty"`
	Query        Query  `json:"query,omitempty"`
}

// Verdict is the decision of an external guard.
// Effect is one of "abort", "redirect", "cancel" or "fail"; empty means none.
type Verdict struct {
	Result any    `json:"result,omitempty" mapstructure:"result"`
	Effect string `json:"effect,omitempty" mapstructure:"effect"`
	Reason any    `json:"reason,omitempty" mapstructure:"reason"`
	To     string `json:"to,omitempty" mapstructure:"to"`
	Params Params `json:"params,omitempty" mapstructure:"params"`
	Query  Query  `json:"query,omitempty" mapstructure:"query"`
	Error  string `json:"error,omitempty" mapstructure:"error"`
}
