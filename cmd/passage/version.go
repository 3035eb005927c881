package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/passage"
	"github.com/aretw0/passage/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of passage",
	Run: func(cmd *cobra.Command, args []string) {
		if tui.IsTerminal(os.Stdout) {
			tui.PrintBanner(os.Stdout, strings.TrimSpace(passage.Version))
			return
		}
		fmt.Printf("passage version %s\n", strings.TrimSpace(passage.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
