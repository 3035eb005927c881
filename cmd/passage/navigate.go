package main

import (
	"os"

	"github.com/aretw0/passage/internal/cli"
	"github.com/spf13/cobra"
)

var navigateCmd = &cobra.Command{
	Use:   "navigate",
	Short: "Run one navigation and print its outcome",
	Long: `Leaves the --from routes and enters the --to routes, outer to inner.
Route IDs may be repeated or comma separated. The outcome is persisted in the
configured store and can be inspected or retried later.`,
	Example: `  passage navigate --from app,editor --to app,inbox --path /inbox --query page=2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		opts := cli.NavigateOptions{Styled: styled()}
		opts.Path, _ = cmd.Flags().GetString("path")
		opts.From, _ = cmd.Flags().GetStringSlice("from")
		opts.To, _ = cmd.Flags().GetStringSlice("to")
		opts.Params, _ = cmd.Flags().GetStringArray("param")
		opts.Query, _ = cmd.Flags().GetStringArray("query")
		opts.SessionID, _ = cmd.Flags().GetString("session")
		opts.JSON, _ = cmd.Flags().GetBool("json")

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()

		_, err = cli.Navigate(sigCtx, rt, opts, os.Stdout)
		return err
	},
}

func init() {
	rootCmd.AddCommand(navigateCmd)

	navigateCmd.Flags().String("path", "", "Destination path")
	navigateCmd.Flags().StringSlice("from", nil, "Route IDs being left, outer to inner")
	navigateCmd.Flags().StringSlice("to", nil, "Route IDs being entered, outer to inner")
	navigateCmd.Flags().StringArray("param", nil, "Path parameter as key=value (repeatable)")
	navigateCmd.Flags().StringArray("query", nil, "Query parameter as key=value (repeatable)")
	navigateCmd.Flags().String("session", "", "Session whose navigations are serialised")
	navigateCmd.Flags().Bool("json", false, "Print the outcome as JSON")
	_ = navigateCmd.MarkFlagRequired("path")
}
