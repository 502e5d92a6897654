package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "growthops",
	Short: "Growth experiment tracker",
	Long: `growthops tracks growth-marketing experiments on kanban boards.

Score ideas with ICE or custom dimensions, move them through the
idea -> hypothesis -> running -> complete -> learnings lifecycle, record
metric baselines, targets and actuals, and review the results in the vault
and the analytics dashboard.

Storage is selected with GROWTHOPS_STORAGE (memory, local or turso).`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		errorLine(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(vaultCmd)
	rootCmd.AddCommand(dashboardCmd)
}
