package pipeline

import (
	"fmt"
	"log/slog"

	"github.com/KaramelBytes/traptidy-cli/internal/abundance"
	"github.com/KaramelBytes/traptidy-cli/internal/metadata"
	"github.com/KaramelBytes/traptidy-cli/internal/table"
	"github.com/google/uuid"
	"gopkg.in/guregu/null.v3"
)

// Options controls a pipeline run.
type Options struct {
	Rules   abundance.Rules
	Relabel map[string]string
	// Delimiters for the two inputs. Zero means the input's default: sniffed
	// for the abundance table, ';' for metadata.
	AbundanceDelimiter rune
	MetadataDelimiter  rune
	Logger             *slog.Logger
}

// Observation is one tidy (species, lysate) reading annotated with sample
// metadata. Metadata fields are null when the lysate had no metadata record.
type Observation struct {
	Species        string
	LysateID       string
	Reads          int64
	TrapID         null.String
	SampleID       null.String
	Habitat        null.String
	BiomassGrams   null.Float
	Latitude       null.Float
	Longitude      null.Float
	CollectingDate null.Time
	Week           null.Int
	Month          null.Int
}

// Stages records row counts after each step of a run.
type Stages struct {
	MetadataRecords int
	AbundanceRows   int
	TaxaKept        int
	SampleColumns   int
	Pivoted         int
	AboveThreshold  int
	Joined          int
	Unmatched       int
}

// Result is the output of one pipeline run.
type Result struct {
	RunID        string
	Observations []Observation
	Samples      []metadata.Sample
	Stages       Stages
	Warnings     []string
}

// Run loads both inputs from disk and tidies them.
func Run(abundancePath, metadataPath string, opt Options) (*Result, error) {
	wide, err := table.ReadFile(abundancePath, table.ReadOptions{Delimiter: opt.AbundanceDelimiter})
	if err != nil {
		return nil, fmt.Errorf("load abundance table: %w", err)
	}
	recs, err := metadata.Load(metadataPath, opt.MetadataDelimiter)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	return Tidy(wide, recs, opt)
}

// Tidy applies the ordered tidying steps to an in-memory wide abundance
// table and raw metadata records.
func Tidy(wide *table.Frame, recs []metadata.Record, opt Options) (*Result, error) {
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	res := &Result{RunID: uuid.NewString()}
	log = log.With("run", res.RunID)

	// 1. metadata normalization
	res.Samples = metadata.Normalize(recs, metadata.Options{Relabel: opt.Relabel, Logger: log})
	res.Stages.MetadataRecords = len(res.Samples)
	undated := 0
	for _, s := range res.Samples {
		if !s.Week.Valid {
			undated++
		}
	}
	if undated > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d metadata records have no usable collecting_date; week/month left empty", undated))
	}
	log.Debug("normalized metadata", "records", len(res.Samples), "undated", undated)

	// 2. taxonomic/quality filter
	res.Stages.AbundanceRows = wide.Len()
	kept, err := abundance.FilterTaxa(wide, opt.Rules)
	if err != nil {
		return nil, fmt.Errorf("filter taxa: %w", err)
	}
	res.Stages.TaxaKept = kept.Len()
	log.Debug("filtered taxa", "rows", wide.Len(), "kept", kept.Len())

	// 3. column pruning
	pruned := abundance.Prune(kept)
	res.Stages.SampleColumns = len(pruned.Columns()) - 1

	// 4. reshape
	long, err := abundance.Pivot(pruned, opt.Rules.SamplePrefix)
	if err != nil {
		return nil, fmt.Errorf("pivot: %w", err)
	}
	res.Stages.Pivoted = len(long)
	log.Debug("pivoted", "sample_columns", res.Stages.SampleColumns, "readings", len(long))

	// 5. abundance/control filter
	long = abundance.FilterReadings(long, opt.Rules)
	res.Stages.AboveThreshold = len(long)
	log.Debug("filtered readings", "kept", len(long), "min_reads", opt.Rules.MinReads)

	// 6. left join
	obs, unmatched, dups := Join(long, res.Samples)
	res.Observations = obs
	res.Stages.Joined = len(obs)
	res.Stages.Unmatched = unmatched
	if len(dups) > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d lysate_IDs appear more than once in metadata; first record used (e.g. %s)", len(dups), dups[0]))
	}
	if unmatched > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%d observations have no matching metadata", unmatched))
	}
	log.Debug("joined metadata", "observations", len(obs), "unmatched", unmatched)
	return res, nil
}

// Join left-joins readings to samples on lysate identifier. Every reading
// yields exactly one observation. It returns the number of readings without
// a metadata match and the duplicated lysate identifiers in samples.
func Join(readings []abundance.Reading, samples []metadata.Sample) (obs []Observation, unmatched int, dups []string) {
	idx, dups := metadata.Index(samples)
	obs = make([]Observation, 0, len(readings))
	for _, rd := range readings {
		o := Observation{Species: rd.Species, LysateID: rd.LysateID, Reads: rd.Reads}
		if i, ok := idx[rd.LysateID]; ok {
			s := samples[i]
			o.TrapID = s.TrapID
			o.SampleID = s.SampleID
			o.Habitat = s.Habitat
			o.BiomassGrams = s.BiomassGrams
			o.Latitude = s.Latitude
			o.Longitude = s.Longitude
			o.CollectingDate = s.CollectingDate
			o.Week = s.Week
			o.Month = s.Month
		} else {
			unmatched++
		}
		obs = append(obs, o)
	}
	return obs, unmatched, dups
}
