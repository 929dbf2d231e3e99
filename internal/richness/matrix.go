package richness

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/KaramelBytes/traptidy-cli/internal/pipeline"
	"gonum.org/v1/gonum/mat"
)

// CommunityMatrix is a lysate × species presence/absence matrix, the input
// shape expected by ordination tools (NMDS, tSNE, UMAP).
type CommunityMatrix struct {
	Lysates []string
	Species []string
	// Data is nil when there are no observations.
	Data *mat.Dense
}

// Community builds the presence/absence matrix. Rows and columns are sorted.
func Community(obs []pipeline.Observation) *CommunityMatrix {
	lys := map[string]int{}
	spp := map[string]int{}
	for _, o := range obs {
		lys[o.LysateID] = 0
		spp[o.Species] = 0
	}
	cm := &CommunityMatrix{Lysates: sortedKeys(lys), Species: sortedKeys(spp)}
	if len(cm.Lysates) == 0 || len(cm.Species) == 0 {
		return cm
	}
	for i, l := range cm.Lysates {
		lys[l] = i
	}
	for j, s := range cm.Species {
		spp[s] = j
	}
	cm.Data = mat.NewDense(len(cm.Lysates), len(cm.Species), nil)
	for _, o := range obs {
		if PresenceAbsence(o.Reads) == 1 {
			cm.Data.Set(lys[o.LysateID], spp[o.Species], 1)
		}
	}
	return cm
}

// Richness returns the row sums, i.e. species richness per lysate.
func (cm *CommunityMatrix) Richness() []int {
	out := make([]int, len(cm.Lysates))
	if cm.Data == nil {
		return out
	}
	for i := range cm.Lysates {
		out[i] = int(mat.Sum(cm.Data.RowView(i)))
	}
	return out
}

// WriteCSV writes the matrix with a lysate_ID column followed by one column
// per species.
func (cm *CommunityMatrix) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"lysate_ID"}, cm.Species...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, len(header))
	for i, l := range cm.Lysates {
		rec[0] = l
		for j := range cm.Species {
			rec[j+1] = strconv.Itoa(int(cm.Data.At(i, j)))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %s: %w", l, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func sortedKeys(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
