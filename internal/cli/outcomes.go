package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/passage/internal/presentation/graph"
)

// ListOutcomes prints the IDs of the persisted outcomes.
func ListOutcomes(ctx context.Context, rt *Runtime, w io.Writer) error {
	ids, err := rt.Engine.Outcomes(ctx)
	if err != nil {
		return fmt.Errorf("error listing outcomes: %w", err)
	}
	if len(ids) == 0 {
		fmt.Fprintln(w, "No outcomes found.")
		return nil
	}

	fmt.Fprintln(w, "Outcomes:")
	for _, id := range ids {
		o, err := rt.Engine.Outcome(ctx, id)
		if err != nil {
			fmt.Fprintf(w, "- %s\n", id)
			continue
		}
		fmt.Fprintf(w, "- %s %s %s\n", id, o.Status, o.Request.Path)
	}
	return nil
}

// InspectOptions selects how an outcome is printed.
type InspectOptions struct {
	JSON    bool
	Mermaid bool
	Styled  bool
}

// InspectOutcome prints a persisted outcome.
func InspectOutcome(ctx context.Context, rt *Runtime, id string, opts InspectOptions, w io.Writer) error {
	o, err := rt.Engine.Outcome(ctx, id)
	if err != nil {
		return fmt.Errorf("error loading outcome '%s': %w", id, err)
	}
	if opts.Mermaid {
		_, err := io.WriteString(w, graph.GenerateMermaid(o))
		return err
	}
	return WriteOutcome(w, o, opts.JSON, opts.Styled)
}

// RemoveOutcomes deletes outcomes, reporting each one.
// Every ID is attempted; the joined error lists the failures.
func RemoveOutcomes(ctx context.Context, rt *Runtime, ids []string, w io.Writer) error {
	var errs []error
	for _, id := range ids {
		if err := rt.Engine.DeleteOutcome(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("error removing '%s': %w", id, err))
			continue
		}
		fmt.Fprintf(w, "Removed outcome '%s'\n", id)
	}
	return errors.Join(errs...)
}

// RetryOutcome re-runs a persisted outcome and prints the new attempt.
func RetryOutcome(ctx context.Context, rt *Runtime, id string, opts InspectOptions, w io.Writer) error {
	o, err := rt.Engine.Retry(ctx, id)
	if err != nil {
		return fmt.Errorf("error retrying '%s': %w", id, err)
	}
	return WriteOutcome(w, o, opts.JSON, opts.Styled)
}
