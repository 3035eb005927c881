package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/passage"
	"github.com/aretw0/passage/internal/logging"
	"github.com/aretw0/passage/pkg/domain"
	"github.com/aretw0/passage/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RoutesURI is the resource listing the known route IDs.
const RoutesURI = "passage://routes"

// NavigateResponse is the structured result of the navigate and retry_outcome tools.
type NavigateResponse struct {
	Outcome  *domain.Outcome `json:"outcome" jsonschema_description:"The settled navigation attempt"`
	Proceed  bool            `json:"proceed" jsonschema_description:"True when the navigation completed and the destination may be rendered"`
	Redirect string          `json:"redirect,omitempty" jsonschema_description:"Target the caller should navigate to instead"`
}

// Server wraps a Navigator and exposes it as an MCP Server.
type Server struct {
	nav       ports.Navigator
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP Server instance.
func NewServer(nav ports.Navigator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		nav:       nav,
		mcpServer: server.NewMCPServer("passage-mcp", strings.TrimSpace(passage.Version)),
		logger:    logger,
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves the MCP protocol over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr string) error {
	baseURL := "http://" + addr
	if strings.HasPrefix(addr, ":") {
		baseURL = "http://localhost" + addr
	}
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: navigate
	navigateTool := mcp.NewTool("navigate",
		mcp.WithDescription("Run the leave hooks of the routes being left and the enter hooks of the routes being entered."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Destination path")),
		mcp.WithString("from", mcp.Description("JSON array of route IDs being left, outer to inner")),
		mcp.WithString("to", mcp.Description("JSON array of route IDs being entered, outer to inner")),
		mcp.WithString("params", mcp.Description("JSON object of path parameters")),
		mcp.WithString("query", mcp.Description("JSON object of query parameters")),
		mcp.WithString("session_id", mcp.Description("Session whose navigations are serialised (optional)")),
		mcp.WithOutputSchema[NavigateResponse](),
	)
	s.mcpServer.AddTool(navigateTool, mcp.NewStructuredToolHandler(s.handleNavigate))

	// TOOL: retry_outcome
	retryTool := mcp.NewTool("retry_outcome",
		mcp.WithDescription("Re-run the request of a persisted outcome as its next attempt."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Outcome ID")),
		mcp.WithOutputSchema[NavigateResponse](),
	)
	s.mcpServer.AddTool(retryTool, mcp.NewStructuredToolHandler(s.handleRetry))

	// TOOL: list_routes
	s.mcpServer.AddTool(mcp.NewTool("list_routes",
		mcp.WithDescription("List the IDs of the routes known to the catalog."),
	), s.handleListRoutes)

	// TOOL: get_outcome
	s.mcpServer.AddTool(mcp.NewTool("get_outcome",
		mcp.WithDescription("Fetch a persisted navigation outcome, including its hook trace."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Outcome ID")),
	), s.handleGetOutcome)
}

func (s *Server) handleNavigate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NavigateResponse, error) {
	req := domain.NavigationRequest{}
	req.Path, _ = args["path"].(string)
	req.SessionID, _ = args["session_id"].(string)

	if err := decodeArg(args, "from", &req.From); err != nil {
		return NavigateResponse{}, err
	}
	if err := decodeArg(args, "to", &req.To); err != nil {
		return NavigateResponse{}, err
	}
	if err := decodeArg(args, "params", &req.Params); err != nil {
		return NavigateResponse{}, err
	}
	if err := decodeArg(args, "query", &req.Query); err != nil {
		return NavigateResponse{}, err
	}

	outcome, err := s.nav.Navigate(ctx, req)
	if err != nil {
		return NavigateResponse{}, fmt.Errorf("navigate failed: %w", err)
	}
	return respond(outcome), nil
}

func (s *Server) handleRetry(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (NavigateResponse, error) {
	id, _ := args["id"].(string)
	outcome, err := s.nav.Retry(ctx, id)
	if err != nil {
		return NavigateResponse{}, fmt.Errorf("retry failed: %w", err)
	}
	return respond(outcome), nil
}

func (s *Server) handleListRoutes(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids, err := s.nav.Routes(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("list routes failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(ids)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleGetOutcome(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := request.GetArguments()["id"].(string)
	outcome, err := s.nav.Outcome(ctx, id)
	if errors.Is(err, domain.ErrOutcomeNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("outcome %q not found", id)), nil
	}
	if err != nil {
		s.logger.Error("MCP get_outcome failed", "outcome_id", id, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("get outcome failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(outcome)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) registerResources() {
	// EXPOSE: passage://routes
	s.mcpServer.AddResource(mcp.NewResource(RoutesURI, "Route Catalog",
		mcp.WithMIMEType("application/json"),
	), s.readRoutes)
}

func (s *Server) readRoutes(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	ids, err := s.nav.Routes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	jsonBytes, _ := json.Marshal(ids)

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      RoutesURI,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}

// decodeArg reads args[key] into out. Clients may send either a JSON
// document as a string or the already decoded value.
func decodeArg(args map[string]interface{}, key string, out any) error {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil
	}
	var data []byte
	switch v := raw.(type) {
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		data = []byte(v)
	default:
		var err error
		if data, err = json.Marshal(v); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	return nil
}

func respond(o *domain.Outcome) NavigateResponse {
	resp := NavigateResponse{
		Outcome: o,
		Proceed: o.Status == domain.StatusCompleted,
	}
	if o.Redirect != nil {
		resp.Redirect = o.Redirect.To
	}
	return resp
}
