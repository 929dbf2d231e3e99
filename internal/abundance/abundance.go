package abundance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/KaramelBytes/traptidy-cli/internal/table"
)

// SpeciesColumn is the only taxonomic column kept after pruning.
const SpeciesColumn = "Species"

// PhylumColumn is consulted by the taxonomic filter and dropped afterwards.
const PhylumColumn = "Phylum"

// PrunedColumns are the classification columns removed once filtering is done.
var PrunedColumns = []string{"Kingdom", "Phylum", "Class", "Order", "Family", "Genus", "BOLD_bin"}

// DefaultSpikeIns are the synthetic control organisms added to every lysate
// before sequencing.
var DefaultSpikeIns = []string{
	"Gryllus bimaculatus",
	"Gryllodes sigillatus",
	"Shelfordella lateralis",
	"Drosophila serrata",
	"Drosophila bicornuta",
	"Drosophila jambulina",
}

// Default patterns.
const (
	DefaultPhylum              = "Arthropoda"
	DefaultUnclassifiedPattern = `unclassified|_X{1,3}$`
	DefaultControlPattern      = `(?i)neg|pos|air`
	DefaultSamplePrefixPattern = `^FL\d+_`
	DefaultMinReads            = 20
)

// Reading is one (species, lysate) read count in long form.
type Reading struct {
	Species  string
	LysateID string
	Reads    int64
}

// Rules holds the compiled filter configuration.
type Rules struct {
	Phylum       string
	Unclassified *regexp.Regexp
	SpikeIns     map[string]struct{}
	SamplePrefix *regexp.Regexp
	// MinReads is exclusive: readings must exceed it.
	MinReads int64
	Control  *regexp.Regexp
}

// RuleConfig is the uncompiled form of Rules.
type RuleConfig struct {
	Phylum              string
	UnclassifiedPattern string
	ControlPattern      string
	SamplePrefixPattern string
	SpikeIns            []string
	MinReads            int64
}

// DefaultRuleConfig returns the survey's standard filter settings.
func DefaultRuleConfig() RuleConfig {
	spikes := make([]string, len(DefaultSpikeIns))
	copy(spikes, DefaultSpikeIns)
	return RuleConfig{
		Phylum:              DefaultPhylum,
		UnclassifiedPattern: DefaultUnclassifiedPattern,
		ControlPattern:      DefaultControlPattern,
		SamplePrefixPattern: DefaultSamplePrefixPattern,
		SpikeIns:            spikes,
		MinReads:            DefaultMinReads,
	}
}

// Compile validates the patterns and builds Rules.
func (c RuleConfig) Compile() (Rules, error) {
	r := Rules{
		Phylum:   strings.TrimSpace(c.Phylum),
		SpikeIns: make(map[string]struct{}, len(c.SpikeIns)),
		MinReads: c.MinReads,
	}
	var err error
	if r.Unclassified, err = compileOptional("unclassified_pattern", c.UnclassifiedPattern); err != nil {
		return Rules{}, err
	}
	if r.Control, err = compileOptional("control_pattern", c.ControlPattern); err != nil {
		return Rules{}, err
	}
	if r.SamplePrefix, err = compileOptional("sample_prefix_pattern", c.SamplePrefixPattern); err != nil {
		return Rules{}, err
	}
	for _, s := range c.SpikeIns {
		if s = strings.TrimSpace(s); s != "" {
			r.SpikeIns[s] = struct{}{}
		}
	}
	return r, nil
}

func compileOptional(name, pattern string) (*regexp.Regexp, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	return re, nil
}

// ParseError reports a read count that is not a non-negative integer.
type ParseError struct {
	Table  string
	Row    int
	Column string
	Value  string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s row %d column %q: invalid read count %q: %v", e.Table, e.Row, e.Column, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsUnclassified reports whether a species label denotes an unresolved taxon.
func (r Rules) IsUnclassified(species string) bool {
	return r.Unclassified != nil && r.Unclassified.MatchString(species)
}

// IsSpikeIn reports whether species is a sequencing control organism.
func (r Rules) IsSpikeIn(species string) bool {
	_, ok := r.SpikeIns[strings.TrimSpace(species)]
	return ok
}

// IsControl reports whether a lysate identifier names a control sample.
func (r Rules) IsControl(lysateID string) bool {
	return r.Control != nil && r.Control.MatchString(lysateID)
}

// FilterTaxa keeps rows of the target phylum whose species is named,
// classified and not a spike-in.
func FilterTaxa(f *table.Frame, r Rules) (*table.Frame, error) {
	if err := f.Require(PhylumColumn, SpeciesColumn); err != nil {
		return nil, err
	}
	phylum, _ := f.Col(PhylumColumn)
	species, _ := f.Col(SpeciesColumn)
	return f.Filter(func(row int) bool {
		sp := species[row]
		if phylum[row] != r.Phylum || sp == "" {
			return false
		}
		return !r.IsUnclassified(sp) && !r.IsSpikeIn(sp)
	}), nil
}

// Prune drops every classification column except Species.
func Prune(f *table.Frame) *table.Frame {
	return f.Drop(PrunedColumns...)
}

// Pivot reshapes a pruned wide table into one Reading per (species, sample
// column). The sample prefix is stripped from each column header to recover
// the lysate identifier. The result has exactly Len() × sample-column rows.
func Pivot(f *table.Frame, prefix *regexp.Regexp) ([]Reading, error) {
	if err := f.Require(SpeciesColumn); err != nil {
		return nil, err
	}
	species, _ := f.Col(SpeciesColumn)
	type sampleCol struct {
		header string
		lysate string
		values []string
	}
	var cols []sampleCol
	// by position: sample headers may collide once case is folded
	for i, c := range f.Columns() {
		if strings.EqualFold(c, SpeciesColumn) {
			continue
		}
		cols = append(cols, sampleCol{header: c, lysate: LysateID(c, prefix), values: f.ColAt(i)})
	}
	out := make([]Reading, 0, f.Len()*len(cols))
	for row := 0; row < f.Len(); row++ {
		for _, c := range cols {
			n, err := table.ParseCount(c.values[row])
			if err != nil {
				return nil, &ParseError{Table: f.Name, Row: row + 1, Column: c.header, Value: c.values[row], Err: err}
			}
			out = append(out, Reading{Species: species[row], LysateID: c.lysate, Reads: n})
		}
	}
	return out, nil
}

// LysateID strips the sequencing-run prefix from a sample column header.
func LysateID(header string, prefix *regexp.Regexp) string {
	if prefix == nil {
		return header
	}
	if loc := prefix.FindStringIndex(header); loc != nil && loc[0] == 0 {
		return header[loc[1]:]
	}
	return header
}

// FilterReadings drops readings at or below the read threshold and readings
// from control lysates.
func FilterReadings(rs []Reading, r Rules) []Reading {
	out := make([]Reading, 0, len(rs))
	for _, rd := range rs {
		if rd.Reads <= r.MinReads || r.IsControl(rd.LysateID) {
			continue
		}
		out = append(out, rd)
	}
	return out
}
