package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/passage/internal/cli"
	"github.com/aretw0/passage/internal/config"
	"github.com/aretw0/passage/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var (
	v      = config.New()
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "passage",
	Short: "Passage runs the leave and enter hooks of route transitions",
	Long: `Passage drives navigations through route catalogs: the leave hooks of the
routes being left run first, then the enter hooks of the routes being entered.
Any hook may redirect, cancel or fail the navigation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		configPath, _ := cmd.Flags().GetString("config")
		c, err := config.Load(v, configPath)
		if err != nil {
			return err
		}
		l, err := cli.NewLogger(c, os.Stderr)
		if err != nil {
			return err
		}
		cfg, logger = c, l
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default ./passage.yaml)")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("catalog", "", "Route catalog file or directory (default routes.yaml)")
	flags.String("guards", "", "Guards file allow-listing external hook processes")
	flags.String("store", "", "Outcome store backend: memory, file or redis")

	for key, flag := range map[string]string{
		"log_level":     "log-level",
		"catalog":       "catalog",
		"guards":        "guards",
		"store.backend": "store",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}

// newRuntime builds the engine from the loaded configuration.
func newRuntime(cmd *cobra.Command) (*cli.Runtime, error) {
	return cli.NewRuntime(cfg, logger)
}

// newStoreRuntime builds an engine that only needs the outcome store.
func newStoreRuntime(cmd *cobra.Command) (*cli.Runtime, error) {
	c := cfg
	if _, err := os.Stat(c.Catalog); err != nil && !cmd.Flags().Changed("catalog") {
		c.Catalog = ""
	}
	return cli.NewRuntime(c, logger)
}

// styled reports whether Markdown output should be rendered for a terminal.
func styled() bool {
	return tui.IsTerminal(os.Stdout)
}
