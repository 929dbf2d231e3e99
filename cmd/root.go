package cmd

import (
	"fmt"
	"log/slog"
	"os"

	cfgpkg "github.com/KaramelBytes/traptidy-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	debug   bool
	// Filter overrides (take precedence over config if set)
	flagMinReads int64
	flagVizURL   string

	// Loaded configuration
	cfg    *cfgpkg.Global
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
)

var rootCmd = &cobra.Command{
	Use:   "traptidy",
	Short: "traptidy: tidy insect metabarcoding tables and summarize species richness",
	Long: `traptidy joins a species-abundance table (one column per sequenced sample) with trap
metadata, removes non-arthropod, unclassified, spike-in and control readings, and produces a tidy
observation table plus richness summaries by trap, habitat and collection time.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.traptidy/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging on stderr")
	rootCmd.PersistentFlags().Int64Var(&flagMinReads, "min-reads", 0, "drop readings with this many reads or fewer (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagVizURL, "viz-url", "", "URL of the external ordination app (overrides config)")
}

func loadConfig() {
	level := slog.LevelWarn
	if debug {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to built-in defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("min-reads") && flagMinReads >= 0 {
		cfg.MinReads = flagMinReads
	}
	if f.Changed("viz-url") {
		cfg.VizURL = flagVizURL
	}
	logger.Debug("configuration loaded", "min_reads", cfg.MinReads, "phylum", cfg.Phylum, "spike_ins", len(cfg.SpikeIns))
}
