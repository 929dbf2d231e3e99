package metadata

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/traptidy-cli/internal/table"
	"github.com/araddon/dateparse"
	"github.com/gocarina/gocsv"
	"gopkg.in/guregu/null.v3"
)

// Required columns of a sample-metadata table. Header names are matched
// case-insensitively, as for the abundance table.
var RequiredColumns = []string{
	"trap_ID", "sample_ID", "habitat", "lysate_ID",
	"biomass_grams", "trap_lat", "trap_long", "collecting_date",
}

// Record is one raw metadata row as read from disk.
type Record struct {
	TrapID         string `csv:"trap_ID"`
	SampleID       string `csv:"sample_ID"`
	Habitat        string `csv:"habitat"`
	LysateID       string `csv:"lysate_ID"`
	BiomassGrams   string `csv:"biomass_grams"`
	TrapLat        string `csv:"trap_lat"`
	TrapLong       string `csv:"trap_long"`
	CollectingDate string `csv:"collecting_date"`
}

// Sample is a normalized metadata record.
type Sample struct {
	TrapID         null.String
	SampleID       null.String
	LysateID       string
	Habitat        null.String
	RawHabitat     string
	BiomassGrams   null.Float
	Latitude       null.Float
	Longitude      null.Float
	CollectingDate null.Time
	Week           null.Int
	Month          null.Int
}

// Options controls metadata normalization.
type Options struct {
	// Relabel maps a cleaned habitat label to its canonical name.
	Relabel map[string]string
	// Location used to interpret collection dates; defaults to UTC.
	Location *time.Location
	Logger   *slog.Logger
}

// Load reads a (possibly compressed) metadata table. A zero delimiter is
// sniffed from the content, falling back to ';'.
func Load(path string, delimiter rune) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open metadata: %w", err)
	}
	defer f.Close()
	rc, err := table.Decompress(f)
	if err != nil {
		return nil, fmt.Errorf("open metadata %s: %w", filepath.Base(path), err)
	}
	defer rc.Close()
	if delimiter == 0 {
		br := bufio.NewReaderSize(rc, 64<<10)
		if d, ok := table.SniffDelimiter(br); ok {
			delimiter = d
		}
		return Decode(filepath.Base(path), br, delimiter)
	}
	return Decode(filepath.Base(path), rc, delimiter)
}

// Decode unmarshals metadata records from r and checks the required header.
func Decode(name string, r io.Reader, delimiter rune) ([]Record, error) {
	if delimiter == 0 {
		delimiter = ';'
	}
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	hr := &headerReader{r: cr}

	var records []Record
	if err := gocsv.UnmarshalCSV(hr, &records); err != nil {
		return nil, fmt.Errorf("decode metadata %s: %w", name, err)
	}
	have := make(map[string]struct{}, len(hr.header))
	for _, h := range hr.header {
		have[h] = struct{}{}
	}
	for _, c := range RequiredColumns {
		if _, ok := have[c]; !ok {
			return nil, &table.MissingColumnError{Table: name, Column: c}
		}
	}
	return records, nil
}

// Normalize cleans habitat labels, parses numbers and derives ISO week and
// month from the collection date. Unparseable dates leave Week and Month null.
func Normalize(records []Record, opt Options) []Sample {
	loc := opt.Location
	if loc == nil {
		loc = time.UTC
	}
	log := opt.Logger
	if log == nil {
		log = slog.Default()
	}
	out := make([]Sample, 0, len(records))
	for _, rec := range records {
		s := Sample{
			TrapID:     optString(rec.TrapID),
			SampleID:   optString(rec.SampleID),
			LysateID:   strings.TrimSpace(rec.LysateID),
			RawHabitat: rec.Habitat,
		}
		if h := NormalizeHabitat(rec.Habitat, opt.Relabel); h != "" {
			s.Habitat = null.StringFrom(h)
		}
		if v, ok := table.ParseFloat(rec.BiomassGrams); ok {
			s.BiomassGrams = null.FloatFrom(v)
		}
		if v, ok := table.ParseFloat(rec.TrapLat); ok {
			s.Latitude = null.FloatFrom(v)
		}
		if v, ok := table.ParseFloat(rec.TrapLong); ok {
			s.Longitude = null.FloatFrom(v)
		}
		if ds := strings.TrimSpace(rec.CollectingDate); ds != "" {
			t, err := dateparse.ParseIn(ds, loc)
			if err != nil {
				log.Debug("unparseable collecting date", "lysate_ID", s.LysateID, "value", ds, "err", err)
			} else {
				_, week := t.ISOWeek()
				s.CollectingDate = null.TimeFrom(t)
				s.Week = null.IntFrom(int64(week))
				s.Month = null.IntFrom(int64(t.Month()))
			}
		}
		out = append(out, s)
	}
	return out
}

// Index maps lysate identifiers to their first sample. Identifiers seen more
// than once are returned in dups, in order of first repetition.
func Index(samples []Sample) (idx map[string]int, dups []string) {
	idx = make(map[string]int, len(samples))
	seen := map[string]bool{}
	for i, s := range samples {
		if s.LysateID == "" {
			continue
		}
		if _, ok := idx[s.LysateID]; ok {
			if !seen[s.LysateID] {
				dups = append(dups, s.LysateID)
				seen[s.LysateID] = true
			}
			continue
		}
		idx[s.LysateID] = i
	}
	return idx, dups
}

func optString(s string) null.String {
	s = strings.TrimSpace(s)
	if s == "" {
		return null.String{}
	}
	return null.StringFrom(s)
}

// headerReader records the header row while gocsv consumes the records.
type headerReader struct {
	r      *csv.Reader
	header []string
}

func (h *headerReader) Read() ([]string, error) {
	rec, err := h.r.Read()
	if err == nil && h.header == nil {
		rec = cleanHeader(rec)
		h.header = rec
	}
	return rec, err
}

func (h *headerReader) ReadAll() ([][]string, error) {
	recs, err := h.r.ReadAll()
	if err == nil && len(recs) > 0 && h.header == nil {
		recs[0] = cleanHeader(recs[0])
		h.header = recs[0]
	}
	return recs, err
}

// cleanHeader trims header names and folds known columns to their canonical
// spelling so the csv tags match regardless of case.
func cleanHeader(rec []string) []string {
	out := make([]string, len(rec))
	for i, c := range rec {
		c = strings.TrimSpace(strings.TrimPrefix(c, "\ufeff"))
		for _, known := range RequiredColumns {
			if strings.EqualFold(c, known) {
				c = known
				break
			}
		}
		out[i] = c
	}
	return out
}
