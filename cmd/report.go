package cmd

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/KaramelBytes/traptidy-cli/internal/report"
	"github.com/KaramelBytes/traptidy-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	repOutputPath string
	repMaxTraps   int
)

var reportCmd = &cobra.Command{
	Use:   "report <abundance.tsv> <metadata.csv>",
	Short: "Run the pipeline and print a Markdown summary of stages and richness",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runPipeline(args[0], args[1])
		if err != nil {
			return err
		}
		rep, err := report.Build(res, report.Options{
			Name:     filepath.Base(args[0]),
			VizURL:   effectiveConfig().VizURL,
			MaxTraps: repMaxTraps,
		})
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := utils.WriteOutput(repOutputPath, out, func(w io.Writer) error {
			_, err := io.WriteString(w, rep.Markdown())
			return err
		}); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		if repOutputPath != "" {
			fmt.Fprintf(out, "✓ Wrote report to %s\n", repOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringVarP(&repOutputPath, "output", "o", "", "optional path to write the report (Markdown)")
	reportCmd.Flags().IntVar(&repMaxTraps, "max-traps", 20, "maximum trap rows in the locations table (0 = unlimited)")
}
