package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpAdapter "github.com/aretw0/passage/pkg/adapters/http"
	"github.com/aretw0/passage/pkg/adapters/mcp"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions holds the flags of the serve command.
type ServeOptions struct {
	Addr    string
	Metrics bool
	Watch   bool
}

// Serve exposes the engine over HTTP until ctx is done.
func Serve(ctx context.Context, rt *Runtime, opts ServeOptions) error {
	handlerOpts := []httpAdapter.Option{httpAdapter.WithLogger(rt.Logger)}
	if opts.Metrics {
		handlerOpts = append(handlerOpts, httpAdapter.WithMetrics(rt.Registry))
	}
	handler, err := httpAdapter.NewHandler(rt.Engine, handlerOpts...)
	if err != nil {
		return fmt.Errorf("error building handler: %w", err)
	}

	if opts.Watch {
		go rt.WatchAndReload(ctx)
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		rt.Logger.Info("Starting Passage Server", "address", srv.Addr, "metrics", opts.Metrics)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		logShutdown(ctx, rt.Logger)

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			rt.Logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		rt.Logger.Info("Passage Server stopped gracefully")
		return nil
	}
}

// MCP transports.
const (
	TransportStdio = "stdio"
	TransportSSE   = "sse"
)

// ServeMCP runs the MCP server on the chosen transport until ctx is done.
func ServeMCP(ctx context.Context, rt *Runtime, transport, addr string) error {
	srv := mcp.NewServer(rt.Engine, rt.Logger)
	go rt.WatchAndReload(ctx)

	switch transport {
	case TransportStdio:
		rt.Logger.Info("Starting Passage MCP Server (Stdio)")
		return srv.ServeStdio()
	case TransportSSE:
		err := srv.ServeSSE(ctx, addr)
		logShutdown(ctx, rt.Logger)
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown transport: %s. Supported: stdio, sse", transport)
}
