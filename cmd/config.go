package cmd

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/traptidy-cli/internal/config"
	"github.com/KaramelBytes/traptidy-cli/internal/metadata"
	"github.com/KaramelBytes/traptidy-cli/internal/table"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set traptidy configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "min_reads: %d\n", cfg.MinReads)
		fmt.Fprintf(out, "phylum: %s\n", cfg.Phylum)
		fmt.Fprintf(out, "unclassified_pattern: %s\n", cfg.UnclassifiedPattern)
		fmt.Fprintf(out, "control_pattern: %s\n", cfg.ControlPattern)
		fmt.Fprintf(out, "sample_prefix_pattern: %s\n", cfg.SamplePrefixPattern)
		fmt.Fprintf(out, "spike_ins: %s\n", strings.Join(cfg.SpikeIns, ", "))
		if len(cfg.HabitatRelabel) > 0 {
			fmt.Fprintln(out, "habitat_relabel:")
			for _, r := range cfg.HabitatRelabel {
				fmt.Fprintf(out, "  %s -> %s\n", r.From, r.To)
			}
		}
		fmt.Fprintf(out, "abundance_delimiter: %s\n", cfg.AbundanceDelimiter)
		fmt.Fprintf(out, "metadata_delimiter: %s\n", cfg.MetadataDelimiter)
		if cfg.VizURL != "" {
			fmt.Fprintf(out, "viz_url: %s\n", cfg.VizURL)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Long: `Set a config value and save to disk.

List values are comma-separated:
  traptidy config set spike_ins "Gryllus bimaculatus,Drosophila serrata"
  traptidy config set habitat_relabel "wind_farm=Wetland,Urban/Cropland=Cropland"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// reload so --min-reads/--viz-url overrides are not persisted
		saved, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		switch key {
		case "min_reads":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for min_reads: %v", val)
			}
			saved.MinReads = i
		case "phylum":
			saved.Phylum = strings.TrimSpace(val)
		case "unclassified_pattern", "control_pattern", "sample_prefix_pattern":
			if _, err := regexp.Compile(val); err != nil {
				return fmt.Errorf("invalid pattern for %s: %w", key, err)
			}
			switch key {
			case "unclassified_pattern":
				saved.UnclassifiedPattern = val
			case "control_pattern":
				saved.ControlPattern = val
			default:
				saved.SamplePrefixPattern = val
			}
		case "spike_ins":
			saved.SpikeIns = splitList(val)
		case "habitat_relabel":
			rules, err := parseRelabel(val)
			if err != nil {
				return err
			}
			saved.HabitatRelabel = rules
		case "abundance_delimiter", "metadata_delimiter":
			if _, err := table.ParseDelimiter(val); err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			if key == "abundance_delimiter" {
				saved.AbundanceDelimiter = val
			} else {
				saved.MetadataDelimiter = val
			}
		case "viz_url":
			saved.VizURL = val
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(saved, cfgFile); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseRelabel reads "from=to" pairs.
func parseRelabel(s string) ([]metadata.HabitatRule, error) {
	var rules []metadata.HabitatRule
	for _, p := range splitList(s) {
		from, to, ok := strings.Cut(p, "=")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid habitat_relabel entry: %q (use from=to)", p)
		}
		rules = append(rules, metadata.HabitatRule{From: from, To: to})
	}
	return rules, nil
}
