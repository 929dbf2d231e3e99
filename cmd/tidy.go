package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/KaramelBytes/traptidy-cli/internal/pipeline"
	"github.com/KaramelBytes/traptidy-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	tidyOutputPath string
	tidyQuiet      bool
)

var tidyCmd = &cobra.Command{
	Use:   "tidy <abundance.tsv> <metadata.csv>",
	Short: "Filter, reshape and join the inputs into a tidy observation table (CSV)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := runPipeline(args[0], args[1])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := utils.WriteOutput(tidyOutputPath, out, func(w io.Writer) error {
			return pipeline.WriteCSV(w, res.Observations)
		}); err != nil {
			return fmt.Errorf("write tidy table: %w", err)
		}
		if !tidyQuiet {
			for _, w := range res.Warnings {
				fmt.Fprintf(os.Stderr, "⚠ %s\n", w)
			}
			if tidyOutputPath != "" {
				fmt.Fprintf(out, "✓ Wrote %d observations to %s\n", len(res.Observations), tidyOutputPath)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tidyCmd)
	tidyCmd.Flags().StringVarP(&tidyOutputPath, "output", "o", "", "optional path to write the tidy table (CSV)")
	tidyCmd.Flags().BoolVar(&tidyQuiet, "quiet", false, "suppress warnings and confirmations")
}
