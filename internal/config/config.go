package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/traptidy-cli/internal/abundance"
	"github.com/KaramelBytes/traptidy-cli/internal/metadata"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	MinReads            int64                  `mapstructure:"min_reads" yaml:"min_reads"`
	Phylum              string                 `mapstructure:"phylum" yaml:"phylum"`
	UnclassifiedPattern string                 `mapstructure:"unclassified_pattern" yaml:"unclassified_pattern"`
	ControlPattern      string                 `mapstructure:"control_pattern" yaml:"control_pattern"`
	SamplePrefixPattern string                 `mapstructure:"sample_prefix_pattern" yaml:"sample_prefix_pattern"`
	SpikeIns            []string               `mapstructure:"spike_ins" yaml:"spike_ins"`
	HabitatRelabel      []metadata.HabitatRule `mapstructure:"habitat_relabel" yaml:"habitat_relabel"`

	// Input parsing
	AbundanceDelimiter string `mapstructure:"abundance_delimiter" yaml:"abundance_delimiter"`
	MetadataDelimiter  string `mapstructure:"metadata_delimiter" yaml:"metadata_delimiter"`

	// External ordination app (NMDS/tSNE/UMAP)
	VizURL string `mapstructure:"viz_url" yaml:"viz_url"`
}

// RuleConfig returns the abundance filter settings.
func (g *Global) RuleConfig() abundance.RuleConfig {
	return abundance.RuleConfig{
		Phylum:              g.Phylum,
		UnclassifiedPattern: g.UnclassifiedPattern,
		ControlPattern:      g.ControlPattern,
		SamplePrefixPattern: g.SamplePrefixPattern,
		SpikeIns:            g.SpikeIns,
		MinReads:            g.MinReads,
	}
}

// Defaults returns the built-in configuration.
func Defaults() *Global {
	rc := abundance.DefaultRuleConfig()
	rules := make([]metadata.HabitatRule, len(metadata.DefaultHabitatRules))
	copy(rules, metadata.DefaultHabitatRules)
	return &Global{
		MinReads:            rc.MinReads,
		Phylum:              rc.Phylum,
		UnclassifiedPattern: rc.UnclassifiedPattern,
		ControlPattern:      rc.ControlPattern,
		SamplePrefixPattern: rc.SamplePrefixPattern,
		SpikeIns:            rc.SpikeIns,
		HabitatRelabel:      rules,
		AbundanceDelimiter:  "tab",
		MetadataDelimiter:   ";",
	}
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.traptidy/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := configDir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. Flags are applied by the caller.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("TRAPTIDY")
	v.AutomaticEnv()

	d := Defaults()
	v.SetDefault("min_reads", d.MinReads)
	v.SetDefault("phylum", d.Phylum)
	v.SetDefault("unclassified_pattern", d.UnclassifiedPattern)
	v.SetDefault("control_pattern", d.ControlPattern)
	v.SetDefault("sample_prefix_pattern", d.SamplePrefixPattern)
	v.SetDefault("spike_ins", d.SpikeIns)
	v.SetDefault("habitat_relabel", d.HabitatRelabel)
	v.SetDefault("abundance_delimiter", d.AbundanceDelimiter)
	v.SetDefault("metadata_delimiter", d.MetadataDelimiter)
	v.SetDefault("viz_url", d.VizURL)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		dir, err := configDir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// optional read
		_ = v.ReadInConfig()
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &c, nil
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".traptidy"), nil
}
