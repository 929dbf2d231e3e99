package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/KaramelBytes/traptidy-cli/internal/pipeline"
	"github.com/KaramelBytes/traptidy-cli/internal/richness"
)

// Options controls report content.
type Options struct {
	// Name labels the dataset, usually the abundance file name.
	Name string
	// VizURL points at the externally hosted ordination app.
	VizURL string
	// MaxTraps limits rows in the trap location table; 0 means unlimited.
	MaxTraps int
}

// Report is a markdown-friendly summary of one tidying run.
type Report struct {
	Name     string
	RunID    string
	Stages   pipeline.Stages
	Species  int
	Lysates  int
	Habitat  []richness.Group
	Week     []richness.Group
	Month    []richness.Group
	Points   []richness.Point
	Traps    int
	VizURL   string
	MaxTraps int
	Warnings []string
}

// Build computes the richness summaries behind a report.
func Build(res *pipeline.Result, opt Options) (*Report, error) {
	r := &Report{
		Name:     opt.Name,
		RunID:    res.RunID,
		Stages:   res.Stages,
		VizURL:   opt.VizURL,
		MaxTraps: opt.MaxTraps,
	}
	r.Warnings = append(r.Warnings, res.Warnings...)
	spp := map[string]struct{}{}
	for _, o := range res.Observations {
		spp[o.Species] = struct{}{}
	}
	r.Species = len(spp)

	samples := richness.SampleRichness(res.Observations)
	r.Lysates = len(samples)
	var err error
	if r.Habitat, err = richness.GroupBy(samples, richness.ByHabitat); err != nil {
		return nil, err
	}
	if r.Week, err = richness.GroupBy(samples, richness.ByWeek); err != nil {
		return nil, err
	}
	if r.Month, err = richness.GroupBy(samples, richness.ByMonth); err != nil {
		return nil, err
	}
	traps := richness.TrapRichness(res.Observations)
	r.Traps = len(traps)
	r.Points = richness.GeoPoints(traps)
	if dropped := len(traps) - len(r.Points); dropped > 0 {
		r.Warnings = append(r.Warnings, fmt.Sprintf("%d traps without coordinates omitted from locations", dropped))
	}
	return r, nil
}

// Markdown renders the report.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[RUN SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Name))
	}
	if r.RunID != "" {
		b.WriteString(fmt.Sprintf("Run: %s\n", r.RunID))
	}
	b.WriteString(fmt.Sprintf("Observations: %d\n", r.Stages.Joined))
	b.WriteString(fmt.Sprintf("Species: %d\n", r.Species))
	b.WriteString(fmt.Sprintf("Lysates: %d\n", r.Lysates))
	b.WriteString(fmt.Sprintf("Traps: %d\n\n", r.Traps))

	b.WriteString("[PIPELINE STAGES]\n")
	s := r.Stages
	b.WriteString(fmt.Sprintf("- metadata records: %d\n", s.MetadataRecords))
	b.WriteString(fmt.Sprintf("- abundance rows: %d\n", s.AbundanceRows))
	b.WriteString(fmt.Sprintf("- taxa kept: %d\n", s.TaxaKept))
	b.WriteString(fmt.Sprintf("- sample columns: %d\n", s.SampleColumns))
	b.WriteString(fmt.Sprintf("- pivoted readings: %d\n", s.Pivoted))
	b.WriteString(fmt.Sprintf("- above threshold, non-control: %d\n", s.AboveThreshold))
	b.WriteString(fmt.Sprintf("- joined: %d (unmatched %d)\n", s.Joined, s.Unmatched))

	writeGroups(&b, "RICHNESS BY HABITAT", "habitat", r.Habitat)
	writeGroups(&b, "RICHNESS BY WEEK", "week", r.Week)
	writeGroups(&b, "RICHNESS BY MONTH", "month", r.Month)

	if len(r.Points) > 0 {
		b.WriteString("\n[TRAP LOCATIONS]\n")
		b.WriteString("| trap | lat | long | richness |\n")
		b.WriteString("| --- | --- | --- | --- |\n")
		pts := make([]richness.Point, len(r.Points))
		copy(pts, r.Points)
		sort.SliceStable(pts, func(i, j int) bool { return pts[i].Richness > pts[j].Richness })
		lim := len(pts)
		if r.MaxTraps > 0 && r.MaxTraps < lim {
			lim = r.MaxTraps
		}
		for _, p := range pts[:lim] {
			b.WriteString(fmt.Sprintf("| %s | %.5f | %.5f | %d |\n", safeVal(p.TrapID), p.Latitude, p.Longitude, p.Richness))
		}
		if lim < len(pts) {
			b.WriteString(fmt.Sprintf("(%d more)\n", len(pts)-lim))
		}
	}

	if r.VizURL != "" {
		b.WriteString("\n[EXTERNAL VISUALIZATION]\n")
		b.WriteString("Ordination (NMDS/tSNE/UMAP) of the community matrix: ")
		b.WriteString(r.VizURL)
		b.WriteString("\n")
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func writeGroups(b *strings.Builder, title, label string, groups []richness.Group) {
	if len(groups) == 0 {
		return
	}
	b.WriteString(fmt.Sprintf("\n[%s]\n", title))
	b.WriteString(fmt.Sprintf("| %s | n | mean | median | sd | min | max |\n", label))
	b.WriteString("| --- | --- | --- | --- | --- | --- | --- |\n")
	for _, g := range groups {
		b.WriteString(fmt.Sprintf("| %s | %d | %.2f | %.1f | %.2f | %.0f | %.0f |\n",
			safeVal(g.Key), g.N, g.Mean, g.Median, g.SD, g.Min, g.Max))
	}
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }
