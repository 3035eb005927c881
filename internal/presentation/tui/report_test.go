package tui

import (
	"bytes"
	"testing"
	"time"

	"github.com/aretw0/passage/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestOutcomeMarkdown(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	o := &domain.Outcome{
		ID:       "o1",
		Request:  domain.NavigationRequest{Path: "/inbox", SessionID: "s1", Attempt: 2, RetryOf: "o0"},
		Status:   domain.StatusRedirected,
		Phase:    domain.PhaseLeave,
		Redirect: &domain.Redirect{To: "login", Query: domain.Query{"next": "/inbox"}},
		Trace: []domain.Step{
			{Phase: domain.PhaseLeave, RouteID: "editor", Convention: domain.ConventionSync, Aborted: true, Duration: time.Millisecond},
			{Phase: domain.PhaseLeave, RouteID: "pipe", Convention: domain.ConventionCallback, Error: "a|b"},
		},
		StartedAt:  start,
		FinishedAt: start.Add(2 * time.Millisecond),
	}

	md := OutcomeMarkdown(o)
	assert.Contains(t, md, "# Redirected `/inbox`")
	assert.Contains(t, md, "- **Session:** `s1`")
	assert.Contains(t, md, "- **Attempt:** 2 (retry of `o0`)")
	assert.Contains(t, md, "leave phase after 2ms")
	assert.Contains(t, md, "- **Redirect:** `login` query `map[next:/inbox]`")
	assert.Contains(t, md, "| 1 | leave | editor | sync | - (aborted) | 1ms |")
	assert.Contains(t, md, "failed: a\\|b")
}

func TestOutcomeMarkdown_NoHooks(t *testing.T) {
	md := OutcomeMarkdown(&domain.Outcome{Status: domain.StatusCompleted, Phase: domain.PhaseEnter, Result: 42})
	assert.Contains(t, md, "# Completed")
	assert.Contains(t, md, "- **Result:** `42`")
	assert.Contains(t, md, "No hooks ran.")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3")
	assert.Contains(t, buf.String(), "1.2.3")
	assert.Contains(t, buf.String(), "|___/")
}

func TestNewRenderer(t *testing.T) {
	render := NewRenderer()
	out, err := render("# Title")
	assert.NoError(t, err)
	assert.Contains(t, out, "Title")
}
