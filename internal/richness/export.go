package richness

import (
	"io"

	"github.com/KaramelBytes/traptidy-cli/internal/table"
	"github.com/gocarina/gocsv"
)

type sampleRow struct {
	LysateID  string `csv:"lysate_ID"`
	TrapID    string `csv:"trap_ID"`
	Habitat   string `csv:"habitat"`
	Latitude  string `csv:"trap_lat"`
	Longitude string `csv:"trap_long"`
	Week      string `csv:"week"`
	Month     string `csv:"month"`
	Reads     int64  `csv:"reads"`
	Richness  int    `csv:"richness"`
}

type trapRow struct {
	TrapID    string `csv:"trap_ID"`
	Habitat   string `csv:"habitat"`
	Latitude  string `csv:"trap_lat"`
	Longitude string `csv:"trap_long"`
	Samples   int    `csv:"samples"`
	Richness  int    `csv:"richness"`
}

type groupRow struct {
	Key    string  `csv:"group"`
	N      int     `csv:"n"`
	Mean   float64 `csv:"mean"`
	Median float64 `csv:"median"`
	SD     float64 `csv:"sd"`
	Min    float64 `csv:"min"`
	Max    float64 `csv:"max"`
}

// WriteSamplesCSV writes per-lysate richness.
func WriteSamplesCSV(w io.Writer, samples []Sample) error {
	rows := make([]sampleRow, len(samples))
	for i, s := range samples {
		rows[i] = sampleRow{
			LysateID:  s.LysateID,
			TrapID:    s.TrapID.String,
			Habitat:   s.Habitat.String,
			Latitude:  table.FormatFloat(s.Latitude),
			Longitude: table.FormatFloat(s.Longitude),
			Week:      table.FormatInt(s.Week),
			Month:     table.FormatInt(s.Month),
			Reads:     s.Reads,
			Richness:  s.Richness,
		}
	}
	return gocsv.Marshal(&rows, w)
}

// WriteTrapsCSV writes per-trap richness.
func WriteTrapsCSV(w io.Writer, traps []Trap) error {
	rows := make([]trapRow, len(traps))
	for i, t := range traps {
		rows[i] = trapRow{
			TrapID:    t.TrapID,
			Habitat:   t.Habitat.String,
			Latitude:  table.FormatFloat(t.Latitude),
			Longitude: table.FormatFloat(t.Longitude),
			Samples:   t.Samples,
			Richness:  t.Richness,
		}
	}
	return gocsv.Marshal(&rows, w)
}

// WriteGroupsCSV writes grouped richness summaries.
func WriteGroupsCSV(w io.Writer, groups []Group) error {
	rows := make([]groupRow, len(groups))
	for i, g := range groups {
		rows[i] = groupRow(g)
	}
	return gocsv.Marshal(&rows, w)
}
