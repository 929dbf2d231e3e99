package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/traptidy-cli/internal/richness"
	"github.com/KaramelBytes/traptidy-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	richBy         string
	richOutputPath string
)

var richnessCmd = &cobra.Command{
	Use:   "richness <abundance.tsv> <metadata.csv>",
	Short: "Compute species richness per sample or trap, or summarized by habitat/week/month",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		by := strings.ToLower(strings.TrimSpace(richBy))
		var render func(io.Writer) error
		switch by {
		case "sample", "trap", "habitat", "week", "month":
		default:
			return fmt.Errorf("unsupported --by: %s (use sample|trap|habitat|week|month)", richBy)
		}
		res, err := runPipeline(args[0], args[1])
		if err != nil {
			return err
		}
		switch by {
		case "sample":
			samples := richness.SampleRichness(res.Observations)
			render = func(w io.Writer) error { return richness.WriteSamplesCSV(w, samples) }
		case "trap":
			traps := richness.TrapRichness(res.Observations)
			render = func(w io.Writer) error { return richness.WriteTrapsCSV(w, traps) }
		default:
			key, err := richness.KeyByName(by)
			if err != nil {
				return err
			}
			groups, err := richness.GroupBy(richness.SampleRichness(res.Observations), key)
			if err != nil {
				return err
			}
			render = func(w io.Writer) error { return richness.WriteGroupsCSV(w, groups) }
		}
		out := cmd.OutOrStdout()
		if err := utils.WriteOutput(richOutputPath, out, render); err != nil {
			return fmt.Errorf("write richness: %w", err)
		}
		if richOutputPath != "" {
			fmt.Fprintf(out, "✓ Wrote richness by %s to %s\n", by, richOutputPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(richnessCmd)
	richnessCmd.Flags().StringVar(&richBy, "by", "sample", "grouping: sample | trap | habitat | week | month")
	richnessCmd.Flags().StringVarP(&richOutputPath, "output", "o", "", "optional path to write the table (CSV)")
}
