// Package richness turns tidy observations into the species-richness
// summaries used for habitat, seasonal and geographic comparisons.
package richness

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/KaramelBytes/traptidy-cli/internal/pipeline"
	"github.com/montanaflynn/stats"
	"gopkg.in/guregu/null.v3"
)

// NA labels groups whose key is null.
const NA = "NA"

// PresenceAbsence converts a read count to a binary presence indicator.
func PresenceAbsence(reads int64) int {
	if reads > 0 {
		return 1
	}
	return 0
}

// Sample is the richness of a single lysate together with its metadata.
type Sample struct {
	LysateID  string
	TrapID    null.String
	Habitat   null.String
	Latitude  null.Float
	Longitude null.Float
	Week      null.Int
	Month     null.Int
	Richness  int
	Reads     int64
}

// Trap is the richness of all samples from one trap combined.
type Trap struct {
	TrapID    string
	Habitat   null.String
	Latitude  null.Float
	Longitude null.Float
	Samples   int
	Richness  int
}

// Group summarizes per-sample richness within one group key.
type Group struct {
	Key    string
	N      int
	Mean   float64
	Median float64
	SD     float64
	Min    float64
	Max    float64
}

// Point is a trap location with its richness.
type Point struct {
	TrapID    string
	Latitude  float64
	Longitude float64
	Richness  int
}

// SampleRichness counts distinct present species per lysate. Samples are
// returned in order of first appearance.
func SampleRichness(obs []pipeline.Observation) []Sample {
	var order []string
	by := map[string]*Sample{}
	species := map[string]map[string]struct{}{}
	for _, o := range obs {
		s, ok := by[o.LysateID]
		if !ok {
			s = &Sample{
				LysateID:  o.LysateID,
				TrapID:    o.TrapID,
				Habitat:   o.Habitat,
				Latitude:  o.Latitude,
				Longitude: o.Longitude,
				Week:      o.Week,
				Month:     o.Month,
			}
			by[o.LysateID] = s
			species[o.LysateID] = map[string]struct{}{}
			order = append(order, o.LysateID)
		}
		s.Reads += o.Reads
		if PresenceAbsence(o.Reads) == 1 {
			species[o.LysateID][o.Species] = struct{}{}
		}
	}
	out := make([]Sample, 0, len(order))
	for _, id := range order {
		s := by[id]
		s.Richness = len(species[id])
		out = append(out, *s)
	}
	return out
}

// TrapRichness counts distinct present species per trap across all of its
// samples. Observations without a trap are skipped. Traps are sorted by ID.
func TrapRichness(obs []pipeline.Observation) []Trap {
	by := map[string]*Trap{}
	species := map[string]map[string]struct{}{}
	lysates := map[string]map[string]struct{}{}
	for _, o := range obs {
		if !o.TrapID.Valid {
			continue
		}
		id := o.TrapID.String
		t, ok := by[id]
		if !ok {
			t = &Trap{TrapID: id}
			by[id] = t
			species[id] = map[string]struct{}{}
			lysates[id] = map[string]struct{}{}
		}
		if !t.Habitat.Valid && o.Habitat.Valid {
			t.Habitat = o.Habitat
		}
		if !t.Latitude.Valid && o.Latitude.Valid && o.Longitude.Valid {
			t.Latitude = o.Latitude
			t.Longitude = o.Longitude
		}
		lysates[id][o.LysateID] = struct{}{}
		if PresenceAbsence(o.Reads) == 1 {
			species[id][o.Species] = struct{}{}
		}
	}
	out := make([]Trap, 0, len(by))
	for id, t := range by {
		t.Richness = len(species[id])
		t.Samples = len(lysates[id])
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TrapID < out[j].TrapID })
	return out
}

// KeyFunc extracts a grouping key from a sample.
type KeyFunc func(Sample) string

// ByHabitat groups by normalized habitat.
func ByHabitat(s Sample) string { return stringKey(s.Habitat) }

// ByWeek groups by ISO week of collection.
func ByWeek(s Sample) string { return intKey(s.Week) }

// ByMonth groups by month of collection.
func ByMonth(s Sample) string { return intKey(s.Month) }

// KeyByName resolves a grouping name (habitat, week, month).
func KeyByName(name string) (KeyFunc, error) {
	switch name {
	case "habitat":
		return ByHabitat, nil
	case "week":
		return ByWeek, nil
	case "month":
		return ByMonth, nil
	}
	return nil, fmt.Errorf("unknown grouping %q (use habitat|week|month)", name)
}

// GroupBy summarizes sample richness per key. Numeric keys sort numerically,
// other keys alphabetically, and NA sorts last.
func GroupBy(samples []Sample, key KeyFunc) ([]Group, error) {
	vals := map[string][]float64{}
	for _, s := range samples {
		k := key(s)
		vals[k] = append(vals[k], float64(s.Richness))
	}
	out := make([]Group, 0, len(vals))
	for k, v := range vals {
		g, err := summarize(k, v)
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", k, err)
		}
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].Key, out[j].Key) })
	return out, nil
}

// GeoPoints returns trap locations. Traps with a null coordinate are dropped.
func GeoPoints(traps []Trap) []Point {
	out := make([]Point, 0, len(traps))
	for _, t := range traps {
		if !t.Latitude.Valid || !t.Longitude.Valid {
			continue
		}
		out = append(out, Point{TrapID: t.TrapID, Latitude: t.Latitude.Float64, Longitude: t.Longitude.Float64, Richness: t.Richness})
	}
	return out
}

func summarize(key string, v []float64) (Group, error) {
	data := stats.LoadRawData(v)
	g := Group{Key: key, N: data.Len()}
	var err error
	if g.Mean, err = data.Mean(); err != nil {
		return g, err
	}
	if g.Median, err = data.Median(); err != nil {
		return g, err
	}
	if g.Min, err = data.Min(); err != nil {
		return g, err
	}
	if g.Max, err = data.Max(); err != nil {
		return g, err
	}
	if data.Len() > 1 {
		if g.SD, err = data.StandardDeviationSample(); err != nil {
			return g, err
		}
	}
	return g, nil
}

func stringKey(s null.String) string {
	if !s.Valid || s.String == "" {
		return NA
	}
	return s.String
}

func intKey(n null.Int) string {
	if !n.Valid {
		return NA
	}
	return strconv.FormatInt(n.Int64, 10)
}

func lessKey(a, b string) bool {
	if a == NA || b == NA {
		return b == NA && a != NA
	}
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return ai < bi
	}
	return a < b
}
