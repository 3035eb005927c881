package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/passage/internal/presentation/tui"
	"github.com/aretw0/passage/pkg/domain"
)

// NavigateOptions holds the flags of the navigate command.
type NavigateOptions struct {
	Path      string
	From      []string
	To        []string
	Params    []string
	Query     []string
	SessionID string
	JSON      bool
	Styled    bool
}

// Request builds the navigation request described by the flags.
func (o NavigateOptions) Request() (domain.NavigationRequest, error) {
	params, err := parsePairs("param", o.Params)
	if err != nil {
		return domain.NavigationRequest{}, err
	}
	query, err := parsePairs("query", o.Query)
	if err != nil {
		return domain.NavigationRequest{}, err
	}
	if o.Path == "" {
		return domain.NavigationRequest{}, fmt.Errorf("--path is required")
	}
	return domain.NavigationRequest{
		SessionID: o.SessionID,
		Path:      o.Path,
		From:      splitIDs(o.From),
		To:        splitIDs(o.To),
		Params:    params,
		Query:     query,
	}, nil
}

// Navigate runs a single navigation and writes its outcome to w.
func Navigate(ctx context.Context, rt *Runtime, opts NavigateOptions, w io.Writer) (*domain.Outcome, error) {
	req, err := opts.Request()
	if err != nil {
		return nil, err
	}
	outcome, err := rt.Engine.Navigate(ctx, req)
	if err != nil {
		return nil, err
	}
	return outcome, WriteOutcome(w, outcome, opts.JSON, opts.Styled)
}

// WriteOutcome prints an outcome as indented JSON or as a Markdown report.
// Styled reports are rendered through glamour.
func WriteOutcome(w io.Writer, o *domain.Outcome, asJSON, styled bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(o)
	}

	md := tui.OutcomeMarkdown(o)
	if styled {
		out, err := tui.NewRenderer()(md)
		if err != nil {
			return err
		}
		md = out
	}
	_, err := io.WriteString(w, md)
	return err
}
