package main

import (
	"github.com/aretw0/passage/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes the engine as a JSON API over HTTP. Request bodies are validated
against the OpenAPI document served on /openapi.yaml. Catalog files are
reloaded when they change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		opts := cli.ServeOptions{Addr: cfg.HTTP.Addr, Metrics: cfg.HTTP.Metrics}
		opts.Watch, _ = cmd.Flags().GetBool("watch")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.Serve(sigCtx, rt, opts)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Address to listen on (default :8080)")
	serveCmd.Flags().Bool("metrics", true, "Serve Prometheus metrics on /metrics")
	serveCmd.Flags().BoolP("watch", "w", true, "Reload the catalog when it changes")
	_ = v.BindPFlag("http.addr", serveCmd.Flags().Lookup("addr"))
	_ = v.BindPFlag("http.metrics", serveCmd.Flags().Lookup("metrics"))
}
