package main

import (
	"os"

	"github.com/aretw0/passage/internal/cli"
	"github.com/spf13/cobra"
)

var routesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List the routes of the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return cli.ListRoutes(cmd.Context(), rt, os.Stdout)
	},
}

var routesValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog for consistency",
	Long:  `Compiles every route and reports invalid hooks, duplicate IDs and redirects to unknown routes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ValidateRoutes(cmd.Context(), cfg, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(routesCmd)
	routesCmd.AddCommand(routesValidateCmd)
}
