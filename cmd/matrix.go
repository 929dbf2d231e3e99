package cmd

import (
	"fmt"

	"github.com/KaramelBytes/traptidy-cli/internal/richness"
	"github.com/KaramelBytes/traptidy-cli/internal/utils"
	"github.com/spf13/cobra"
)

var matrixOutputPath string

var matrixCmd = &cobra.Command{
	Use:   "matrix <abundance.tsv> <metadata.csv>",
	Short: "Export the lysate × species presence/absence matrix for ordination tools",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runPipeline(args[0], args[1])
		if err != nil {
			return err
		}
		cm := richness.Community(res.Observations)
		out := cmd.OutOrStdout()
		if err := utils.WriteOutput(matrixOutputPath, out, cm.WriteCSV); err != nil {
			return fmt.Errorf("write matrix: %w", err)
		}
		if matrixOutputPath != "" {
			fmt.Fprintf(out, "✓ Wrote %d×%d matrix to %s\n", len(cm.Lysates), len(cm.Species), matrixOutputPath)
			if url := effectiveConfig().VizURL; url != "" {
				fmt.Fprintf(out, "  Upload it to %s for NMDS/tSNE/UMAP\n", url)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(matrixCmd)
	matrixCmd.Flags().StringVarP(&matrixOutputPath, "output", "o", "", "optional path to write the matrix (CSV)")
}
