package pipeline

import (
	"io"

	"github.com/KaramelBytes/traptidy-cli/internal/table"
	"github.com/gocarina/gocsv"
)

// Row is the flat, string-valued export form of an Observation. Null
// metadata fields export as empty cells.
type Row struct {
	Species        string `csv:"species"`
	LysateID       string `csv:"lysate_ID"`
	Reads          int64  `csv:"reads"`
	TrapID         string `csv:"trap_ID"`
	SampleID       string `csv:"sample_ID"`
	Habitat        string `csv:"habitat"`
	BiomassGrams   string `csv:"biomass_grams"`
	Latitude       string `csv:"trap_lat"`
	Longitude      string `csv:"trap_long"`
	CollectingDate string `csv:"collecting_date"`
	Week           string `csv:"week"`
	Month          string `csv:"month"`
}

// Rows flattens observations for export.
func Rows(obs []Observation) []Row {
	out := make([]Row, len(obs))
	for i, o := range obs {
		r := Row{
			Species:      o.Species,
			LysateID:     o.LysateID,
			Reads:        o.Reads,
			TrapID:       o.TrapID.String,
			SampleID:     o.SampleID.String,
			Habitat:      o.Habitat.String,
			BiomassGrams: table.FormatFloat(o.BiomassGrams),
			Latitude:     table.FormatFloat(o.Latitude),
			Longitude:    table.FormatFloat(o.Longitude),
			Week:         table.FormatInt(o.Week),
			Month:        table.FormatInt(o.Month),
		}
		if o.CollectingDate.Valid {
			r.CollectingDate = o.CollectingDate.Time.Format("2006-01-02")
		}
		out[i] = r
	}
	return out
}

// WriteCSV writes the tidy table as CSV with a header row.
func WriteCSV(w io.Writer, obs []Observation) error {
	rows := Rows(obs)
	return gocsv.Marshal(&rows, w)
}
