package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MinReads != 20 || c.Phylum != "Arthropoda" || c.MetadataDelimiter != ";" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if len(c.SpikeIns) != 6 || len(c.HabitatRelabel) != 4 {
		t.Fatalf("expected 6 spike-ins and 4 habitat rules, got %d/%d", len(c.SpikeIns), len(c.HabitatRelabel))
	}
	if _, err := c.RuleConfig().Compile(); err != nil {
		t.Fatalf("default rules must compile: %v", err)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	p := filepath.Join(dir, "traptidy.yaml")
	body := "min_reads: 50\n" +
		"habitat_relabel:\n" +
		"  - from: wind_farm\n" +
		"    to: Wetland\n" +
		"  - from: Pasture\n" +
		"    to: Grassland\n" +
		"viz_url: https://example.org/app\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("TRAPTIDY_PHYLUM", "Mollusca")
	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.MinReads != 50 || c.VizURL != "https://example.org/app" {
		t.Fatalf("file values not applied: %+v", c)
	}
	if c.Phylum != "Mollusca" {
		t.Fatalf("env override not applied: %s", c.Phylum)
	}
	if len(c.HabitatRelabel) != 2 || c.HabitatRelabel[1].From != "Pasture" || c.HabitatRelabel[1].To != "Grassland" {
		t.Fatalf("habitat rules: %+v", c.HabitatRelabel)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	c := Defaults()
	c.MinReads = 5
	c.VizURL = "https://example.org/umap"
	if err := Save(c, p); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.MinReads != 5 || got.VizURL != c.VizURL || len(got.HabitatRelabel) != 4 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
