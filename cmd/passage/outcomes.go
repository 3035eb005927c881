package main

import (
	"os"

	"github.com/aretw0/passage/internal/cli"
	"github.com/spf13/cobra"
)

var outcomesCmd = &cobra.Command{
	Use:     "outcomes",
	Aliases: []string{"outcome"},
	Short:   "Manage persisted navigation outcomes",
	Long:    `List, inspect, retry and remove the outcomes kept by the configured store.`,
}

var outcomesLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all persisted outcomes",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newStoreRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.ListOutcomes(cmd.Context(), rt, os.Stdout)
	},
}

var outcomesInspectCmd = &cobra.Command{
	Use:   "inspect <outcome-id>",
	Short: "Inspect an outcome and its hook trace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newStoreRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.InspectOutcome(cmd.Context(), rt, args[0], inspectOptions(cmd), os.Stdout)
	},
}

var outcomesRmCmd = &cobra.Command{
	Use:   "rm <outcome-id>...",
	Short: "Remove one or more outcomes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newStoreRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.RemoveOutcomes(cmd.Context(), rt, args, os.Stdout)
	},
}

var outcomesRetryCmd = &cobra.Command{
	Use:   "retry <outcome-id>",
	Short: "Re-run the request of an outcome as its next attempt",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()

		sigCtx := cli.NewSignalContext(cmd.Context())
		defer sigCtx.Cancel()
		return cli.RetryOutcome(sigCtx, rt, args[0], inspectOptions(cmd), os.Stdout)
	},
}

func inspectOptions(cmd *cobra.Command) cli.InspectOptions {
	opts := cli.InspectOptions{Styled: styled()}
	opts.JSON, _ = cmd.Flags().GetBool("json")
	if cmd.Flags().Lookup("mermaid") != nil {
		opts.Mermaid, _ = cmd.Flags().GetBool("mermaid")
	}
	return opts
}

func init() {
	rootCmd.AddCommand(outcomesCmd)
	outcomesCmd.AddCommand(outcomesLsCmd)
	outcomesCmd.AddCommand(outcomesInspectCmd)
	outcomesCmd.AddCommand(outcomesRmCmd)
	outcomesCmd.AddCommand(outcomesRetryCmd)

	outcomesInspectCmd.Flags().Bool("json", false, "Print the outcome as JSON")
	outcomesInspectCmd.Flags().Bool("mermaid", false, "Print the hook trace as a Mermaid diagram")
	outcomesRetryCmd.Flags().Bool("json", false, "Print the new outcome as JSON")
}
