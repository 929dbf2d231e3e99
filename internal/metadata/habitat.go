package metadata

import "strings"

// HabitatRule recodes one raw habitat label to a canonical habitat.
type HabitatRule struct {
	From string `mapstructure:"from" yaml:"from"`
	To   string `mapstructure:"to" yaml:"to"`
}

// DefaultHabitatRules collapses the inconsistent labels seen in the survey
// into the canonical habitat set.
var DefaultHabitatRules = []HabitatRule{
	{From: "wind_farm", To: "Wetland"},
	{From: "Cropland/Grassland", To: "Grassland"},
	{From: "Urban/Cropland", To: "Cropland"},
	{From: "Forest/Grassland", To: "Grassland"},
}

// Relabel builds a lookup table from rules. Later rules override earlier ones.
func Relabel(rules []HabitatRule) map[string]string {
	m := make(map[string]string, len(rules))
	for _, r := range rules {
		from := strings.TrimSpace(r.From)
		if from == "" {
			continue
		}
		m[from] = strings.TrimSpace(r.To)
	}
	return m
}

// NormalizeHabitat strips a trailing "?" uncertainty marker and applies the
// relabel table. Labels without a rule are returned cleaned but unchanged.
func NormalizeHabitat(raw string, relabel map[string]string) string {
	h := strings.TrimSpace(raw)
	h = strings.TrimSpace(strings.TrimSuffix(h, "?"))
	if to, ok := relabel[h]; ok {
		return to
	}
	return h
}
