package handlers

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ceres/internal/export"
)

// NewExportCmd creates the export command: dump stored datasets as JSONL,
// pretty JSON, or CSV.
func NewExportCmd() *cobra.Command {
	var (
		format       string
		portalFilter string
		limit        int
		outputPath   string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export harvested datasets to JSONL, JSON, or CSV",
		Long: `Export writes every stored dataset, newest-updated first, to stdout or a
file in the requested format.

Examples:
  ceres export --format csv > datasets.csv
  ceres export --format json --portal https://catalog.data.gov --limit 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd.Context(), format, portalFilter, limit, outputPath)
		},
	}

	cmd.Flags().StringVar(&format, "format", "jsonl", "output format: jsonl, json, or csv")
	cmd.Flags().StringVar(&portalFilter, "portal", "", "limit the export to one source portal")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of datasets (0 = no limit)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write to this file instead of stdout")

	return cmd
}

func runExport(ctx context.Context, formatFlag, portalFilter string, limit int, outputPath string) error {
	outFormat, err := export.ParseFormat(formatFlag)
	if err != nil {
		return err
	}

	repo, err := openRepository()
	if err != nil {
		return err
	}
	defer repo.Close()

	var portalArg *string
	if portalFilter != "" {
		portalArg = &portalFilter
	}
	var limitArg *int
	if limit > 0 {
		limitArg = &limit
	}

	datasets, err := repo.ListAll(ctx, portalArg, limitArg)
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := export.Write(out, outFormat, datasets); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "✅ Wrote %d dataset(s) to %s\n", len(datasets), outputPath)
	}
	return nil
}
