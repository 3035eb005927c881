package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/passage"
	"github.com/aretw0/passage/internal/logging"
	"github.com/aretw0/passage/pkg/adapters/memory"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	loader := memory.MustLoader(
		domain.Route{ID: "checkout", OnLeave: domain.LeaveFunc(func(ctx context.Context, tr *domain.Transition, _ any) (any, error) {
			return nil, nil
		})},
		domain.Route{ID: "account", OnEnter: domain.EnterFunc(func(ctx context.Context, tr *domain.Transition, p domain.Params, q domain.Query) (any, error) {
			if p["user"] == nil {
				tr.Redirect("login", nil, domain.Query{"next": tr.Path()})
			}
			return p["user"], nil
		})},
	)
	eng := passage.New(passage.WithLoader(loader), passage.WithStore(memory.NewStore()))
	return NewServer(eng, logging.NewNop())
}

func toolRequest(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestHandleNavigate(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	args := map[string]any{
		"path":   "/account",
		"from":   `["checkout"]`,
		"to":     `["account"]`,
		"params": `{"user": "ana"}`,
	}
	resp, err := s.handleNavigate(ctx, toolRequest(args), args)
	require.NoError(t, err)
	assert.True(t, resp.Proceed)
	assert.Equal(t, "ana", resp.Outcome.Result)
	assert.Len(t, resp.Outcome.Trace, 2)

	// Already decoded values are accepted too.
	args = map[string]any{
		"path": "/account",
		"to":   []any{"account"},
	}
	resp, err = s.handleNavigate(ctx, toolRequest(args), args)
	require.NoError(t, err)
	assert.False(t, resp.Proceed)
	assert.Equal(t, "login", resp.Redirect)
	assert.Equal(t, domain.StatusRedirected, resp.Outcome.Status)
}

func TestHandleNavigate_Errors(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	args := map[string]any{"path": "/x", "to": `not json`}
	_, err := s.handleNavigate(ctx, toolRequest(args), args)
	assert.ErrorContains(t, err, "invalid to")

	args = map[string]any{"path": "/x", "to": `["ghost"]`}
	_, err = s.handleNavigate(ctx, toolRequest(args), args)
	assert.ErrorIs(t, err, domain.ErrRouteNotFound)
}

func TestOutcomeTools(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	args := map[string]any{"path": "/account", "to": `["account"]`}
	first, err := s.handleNavigate(ctx, toolRequest(args), args)
	require.NoError(t, err)

	res, err := s.handleGetOutcome(ctx, toolRequest(map[string]any{"id": first.Outcome.ID}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	var o domain.Outcome
	require.NoError(t, json.Unmarshal([]byte(textOf(t, res)), &o))
	assert.Equal(t, first.Outcome.ID, o.ID)

	retryArgs := map[string]any{"id": first.Outcome.ID}
	retried, err := s.handleRetry(ctx, toolRequest(retryArgs), retryArgs)
	require.NoError(t, err)
	assert.Equal(t, 2, retried.Outcome.Request.Attempt)
	assert.Equal(t, first.Outcome.ID, retried.Outcome.Request.RetryOf)

	res, err = s.handleGetOutcome(ctx, toolRequest(map[string]any{"id": "missing"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, textOf(t, res), "not found")
}

func TestRoutesToolAndResource(t *testing.T) {
	s := newServer(t)
	ctx := context.Background()

	res, err := s.handleListRoutes(ctx, toolRequest(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `["account","checkout"]`, textOf(t, res))

	contents, err := s.readRoutes(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, RoutesURI, text.URI)
	assert.JSONEq(t, `["account","checkout"]`, text.Text)
}
