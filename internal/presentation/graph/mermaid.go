package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/passage/pkg/domain"
)

// GenerateMermaid produces a Mermaid flowchart of an outcome's hook trace.
// It applies semantic styling:
// - Destination: ((Circle))
// - Callback hook: [[Subroutine]]
// - Sync hook: [Rectangle]
// - Settled status: {{Hexagon}}
// Steps that failed or ran after an abort was recorded are styled as such.
func GenerateMermaid(o *domain.Outcome) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	fmt.Fprintf(&sb, "    dest((\"%s\"))\n", escape(o.Request.Path))

	prev := "dest"
	var failed, aborted []string
	for i, s := range o.Trace {
		id := fmt.Sprintf("s%d_%s", i, sanitizeMermaidID(s.RouteID))

		opener, closer := "[", "]"
		if s.Convention == domain.ConventionCallback {
			opener, closer = "[[", "]]"
		}
		label := fmt.Sprintf("%s %s", s.Phase, s.RouteID)
		if s.Duration > 0 {
			label = fmt.Sprintf("%s <br/> %s", label, s.Duration)
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", id, opener, escape(label), closer)

		arrow := "-->"
		if i > 0 && o.Trace[i-1].Phase != s.Phase {
			arrow = "==>"
		}
		fmt.Fprintf(&sb, "    %s %s %s\n", prev, arrow, id)
		prev = id

		switch {
		case s.Error != "":
			failed = append(failed, id)
		case s.Aborted:
			aborted = append(aborted, id)
		}
	}

	status := string(o.Status)
	if o.Redirect != nil {
		status = fmt.Sprintf("%s to %s", status, o.Redirect.To)
	} else if o.Reason != "" && o.Status == domain.StatusAborted {
		status = fmt.Sprintf("%s: %s", status, o.Reason)
	}
	fmt.Fprintf(&sb, "    result{{\"%s\"}}\n", escape(status))
	fmt.Fprintf(&sb, "    %s -.-> result\n", prev)

	sb.WriteString("\n    %% Status Styles\n")
	// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
	sb.WriteString("    classDef failed fill:#ffcdd2,stroke:#b71c1c,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef aborted fill:#fff9c4,stroke:#f9a825,stroke-width:2px,color:#000;\n")
	for _, id := range failed {
		fmt.Fprintf(&sb, "    class %s failed;\n", id)
	}
	for _, id := range aborted {
		fmt.Fprintf(&sb, "    class %s aborted;\n", id)
	}
	return sb.String()
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	return s
}
