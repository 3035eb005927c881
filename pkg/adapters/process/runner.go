// Package process runs external guard processes for declarative hooks.
//
// A guard receives the invocation as JSON on stdin and as PASSAGE_* environment
// variables. It answers on stdout: a JSON object is decoded as a verdict
// ({"effect": "redirect", "to": "login"}), anything else becomes the hook
// result. A non-zero exit fails the hook.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
	"time"

	"github.com/aretw0/passage/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// Runner implements ports.HookExecutor by executing local processes.
// It follows a Strict Registry pattern for security (Allow-Listing).
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(guards map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, g := range guards {
			r.registry[name] = RegisteredProcess{
				Command: g.Command,
				Args:    g.Args,
				Env:     g.Environment,
			}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted script/command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Names returns the registered guard names.
func (r *Runner) Names() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	return names
}

// waitDelay bounds how long output pipes may outlive a killed guard.
const waitDelay = time.Second

var unsafeKey = regexp.MustCompile(`[^A-Z0-9_]`)

// Execute runs the guard registered as name.
func (r *Runner) Execute(ctx context.Context, name string, inv domain.Invocation) (domain.Verdict, error) {
	proc, ok := r.registry[name]
	if !ok {
		return domain.Verdict{}, fmt.Errorf("process guard not registered: %s", name)
	}

	input, err := json.Marshal(inv)
	if err != nil {
		return domain.Verdict{}, fmt.Errorf("failed to encode invocation: %w", err)
	}

	// Params travel as environment variables, never as flags, so values cannot inject arguments.
	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.WaitDelay = waitDelay
	cmd.Stdin = bytes.NewReader(input)

	env := []string{
		"PASSAGE_PHASE=" + string(inv.Phase),
		"PASSAGE_ROUTE=" + inv.RouteID,
		"PASSAGE_PATH=" + inv.Path,
		"PASSAGE_TRANSITION_ID=" + inv.TransitionID,
	}
	for k, v := range inv.Params {
		env = append(env, fmt.Sprintf("PASSAGE_PARAM_%s=%s", envKey(k), envValue(v)))
	}
	for k, v := range inv.Query {
		env = append(env, fmt.Sprintf("PASSAGE_QUERY_%s=%s", envKey(k), envValue(v)))
	}
	for k, v := range proc.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = append(cmd.Environ(), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.Verdict{}, ctxErr
		}
		return domain.Verdict{}, fmt.Errorf("execution failed: %w. Stderr: %s", err, strings.TrimSpace(stderr.String()))
	}

	return parseVerdict(strings.TrimSpace(stdout.String()))
}

// parseVerdict decodes a JSON object verdict, falling back to a plain result.
func parseVerdict(output string) (domain.Verdict, error) {
	if strings.HasPrefix(output, "{") && strings.HasSuffix(output, "}") {
		var raw map[string]any
		if err := json.Unmarshal([]byte(output), &raw); err == nil {
			var v domain.Verdict
			if err := mapstructure.Decode(raw, &v); err != nil {
				return domain.Verdict{}, fmt.Errorf("invalid verdict: %w", err)
			}
			return v, nil
		}
	}
	if strings.HasPrefix(output, "[") && strings.HasSuffix(output, "]") {
		var list []any
		if err := json.Unmarshal([]byte(output), &list); err == nil {
			return domain.Verdict{Result: list}, nil
		}
	}
	if output == "" {
		return domain.Verdict{}, nil
	}
	return domain.Verdict{Result: output}, nil
}

func envKey(k string) string {
	return unsafeKey.ReplaceAllString(strings.ToUpper(k), "_")
}

func envValue(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	default:
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return fmt.Sprintf("%v", v)
	}
}
