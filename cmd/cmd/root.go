// Package cmd wires Ceres's cobra command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ceres/cmd/handlers"
)

var rootCmd = &cobra.Command{
	Use:   "ceres",
	Short: "Ceres indexes open-data catalogs for semantic search",
	Long: `Ceres crawls CKAN-compatible open-data portals, embeds each dataset's
title and description, and stores the result in a pgvector-backed dataset
store so natural-language queries can retrieve semantically similar
datasets.`,
}

// Execute adds all child commands to the root command and runs it. This is
// called by main.main(); it only needs to happen once.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(handlers.NewHarvestCmd())
	rootCmd.AddCommand(handlers.NewSearchCmd())
	rootCmd.AddCommand(handlers.NewExportCmd())
	rootCmd.AddCommand(handlers.NewStatsCmd())
	rootCmd.AddCommand(handlers.NewMigrateCmd())
}
