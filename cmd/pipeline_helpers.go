package cmd

import (
	"fmt"

	cfgpkg "github.com/KaramelBytes/traptidy-cli/internal/config"
	"github.com/KaramelBytes/traptidy-cli/internal/metadata"
	"github.com/KaramelBytes/traptidy-cli/internal/pipeline"
	"github.com/KaramelBytes/traptidy-cli/internal/table"
)

// effectiveConfig returns the loaded config, or defaults when none loaded.
func effectiveConfig() *cfgpkg.Global {
	if cfg == nil {
		return cfgpkg.Defaults()
	}
	return cfg
}

// pipelineOptions compiles the configured rules into pipeline options.
func pipelineOptions(c *cfgpkg.Global) (pipeline.Options, error) {
	rules, err := c.RuleConfig().Compile()
	if err != nil {
		return pipeline.Options{}, err
	}
	ad, err := table.ParseDelimiter(c.AbundanceDelimiter)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("abundance_delimiter: %w", err)
	}
	md, err := table.ParseDelimiter(c.MetadataDelimiter)
	if err != nil {
		return pipeline.Options{}, fmt.Errorf("metadata_delimiter: %w", err)
	}
	return pipeline.Options{
		Rules:              rules,
		Relabel:            metadata.Relabel(c.HabitatRelabel),
		AbundanceDelimiter: ad,
		MetadataDelimiter:  md,
		Logger:             logger,
	}, nil
}

// runPipeline tidies the two input files with the effective configuration.
func runPipeline(abundancePath, metadataPath string) (*pipeline.Result, error) {
	opt, err := pipelineOptions(effectiveConfig())
	if err != nil {
		return nil, err
	}
	return pipeline.Run(abundancePath, metadataPath, opt)
}
