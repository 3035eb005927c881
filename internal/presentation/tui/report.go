package tui

import (
	"fmt"
	"strings"

	"github.com/aretw0/passage/pkg/domain"
)

// OutcomeMarkdown describes an outcome and its hook trace as Markdown.
func OutcomeMarkdown(o *domain.Outcome) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s `%s`\n\n", statusTitle(o.Status), o.Request.Path)
	fmt.Fprintf(&sb, "- **Outcome:** `%s`\n", o.ID)
	if o.Request.SessionID != "" {
		fmt.Fprintf(&sb, "- **Session:** `%s`\n", o.Request.SessionID)
	}
	if o.Request.Attempt > 1 {
		fmt.Fprintf(&sb, "- **Attempt:** %d (retry of `%s`)\n", o.Request.Attempt, o.Request.RetryOf)
	}
	fmt.Fprintf(&sb, "- **Settled in:** %s phase after %s\n", o.Phase, o.FinishedAt.Sub(o.StartedAt))

	switch {
	case o.Redirect != nil:
		fmt.Fprintf(&sb, "- **Redirect:** `%s`", o.Redirect.To)
		if len(o.Redirect.Params) > 0 {
			fmt.Fprintf(&sb, " params `%v`", map[string]any(o.Redirect.Params))
		}
		if len(o.Redirect.Query) > 0 {
			fmt.Fprintf(&sb, " query `%v`", map[string]any(o.Redirect.Query))
		}
		sb.WriteString("\n")
	case o.Error != "":
		fmt.Fprintf(&sb, "- **Error:** %s\n", o.Error)
	case o.Reason != "":
		fmt.Fprintf(&sb, "- **Reason:** %s\n", o.Reason)
	case o.Result != nil:
		fmt.Fprintf(&sb, "- **Result:** `%v`\n", o.Result)
	}

	if len(o.Trace) == 0 {
		sb.WriteString("\nNo hooks ran.\n")
		return sb.String()
	}

	sb.WriteString("\n| # | Phase | Route | Convention | Result | Duration |\n")
	sb.WriteString("|---|---|---|---|---|---|\n")
	for i, s := range o.Trace {
		result := fmt.Sprintf("%v", s.Result)
		switch {
		case s.Error != "":
			result = "failed: " + s.Error
		case s.Result == nil:
			result = "-"
		}
		if s.Aborted {
			result += " (aborted)"
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %s | %s |\n",
			i+1, s.Phase, s.RouteID, s.Convention, strings.ReplaceAll(result, "|", "\\|"), s.Duration)
	}
	return sb.String()
}

func statusTitle(s domain.OutcomeStatus) string {
	switch s {
	case domain.StatusCompleted:
		return "Completed"
	case domain.StatusRedirected:
		return "Redirected"
	case domain.StatusCancelled:
		return "Cancelled"
	case domain.StatusAborted:
		return "Aborted"
	case domain.StatusFailed:
		return "Failed"
	}
	return "Pending"
}
