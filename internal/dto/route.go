package dto

// Catalog is the on-disk shape of a route catalog file.
type Catalog struct {
	Routes []RouteSpec `json:"routes" yaml:"routes" toml:"routes" mapstructure:"routes"`
}

// RouteSpec declares a route entry whose hooks are built by the compiler.
// It uses "mapstructure" tags to match standard Frontmatter/YAML keys.
type RouteSpec struct {
	ID          string    `json:"id" yaml:"id" toml:"id" mapstructure:"id"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" toml:"description,omitempty" mapstructure:"description"`
	OnLeave     *HookSpec `json:"on_leave,omitempty" yaml:"on_leave,omitempty" toml:"on_leave,omitempty" mapstructure:"on_leave"`
	OnEnter     *HookSpec `json:"on_enter,omitempty" yaml:"on_enter,omitempty" toml:"on_enter,omitempty" mapstructure:"on_enter"`
}

// HookSpec declares the behaviour of one hook.
//
// Convention is one of "sync" (default), "deferred" or "callback".
// Delay is a Go duration string the hook waits before settling.
// Effect is one of "abort", "redirect", "cancel" or "fail"; empty means none.
type HookSpec struct {
	Convention string `json:"convention,omitempty" yaml:"convention,omitempty" toml:"convention,omitempty" mapstructure:"convention"`
	Delay      string `json:"delay,omitempty" yaml:"delay,omitempty" toml:"delay,omitempty" mapstructure:"delay"`
	Result     any    `json:"result,omitempty" yaml:"result,omitempty" toml:"result,omitempty" mapstructure:"result"`

	Effect string `json:"effect,omitempty" yaml:"effect,omitempty" toml:"effect,omitempty" mapstructure:"effect"`

	// Run names a registered guard process whose verdict replaces the static
	// result and effect.
	Run string `json:"run,omitempty" yaml:"run,omitempty" toml:"run,omitempty" mapstructure:"run"`

	// abort
	Reason any `json:"reason,omitempty" yaml:"reason,omitempty" toml:"reason,omitempty" mapstructure:"reason"`

	// redirect
	To     string         `json:"to,omitempty" yaml:"to,omitempty" toml:"to,omitempty" mapstructure:"to"`
	Params map[string]any `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty" mapstructure:"params"`
	Query  map[string]any `json:"query,omitempty" yaml:"query,omitempty" toml:"query,omitempty" mapstructure:"query"`

	// fail
	Error string `json:"error,omitempty" yaml:"error,omitempty" toml:"error,omitempty" mapstructure:"error"`
}

// Hook conventions accepted in HookSpec.Convention.
const (
	ConventionSync     = "sync"
	ConventionDeferred = "deferred"
	ConventionCallback = "callback"
)

// Effects accepted in HookSpec.Effect.
const (
	EffectAbort    = "abort"
	EffectRedirect = "redirect"
	EffectCancel   = "cancel"
	EffectFail     = "fail"
)
