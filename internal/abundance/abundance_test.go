package abundance

import (
	"errors"
	"strings"
	"testing"

	"github.com/KaramelBytes/traptidy-cli/internal/table"
)

func mustRules(t *testing.T) Rules {
	t.Helper()
	r, err := DefaultRuleConfig().Compile()
	if err != nil {
		t.Fatalf("compile rules: %v", err)
	}
	return r
}

func wideFrame(rows ...string) *table.Frame {
	header := "Kingdom\tPhylum\tClass\tOrder\tFamily\tGenus\tSpecies\tBOLD_bin\tFL01_sample01\tFL02_NegControl1"
	f, _ := table.Read("species.tsv", strings.NewReader(header+"\n"+strings.Join(rows, "\n")), table.ReadOptions{Delimiter: '\t'})
	return f
}

func TestUnclassifiedPattern(t *testing.T) {
	r := mustRules(t)
	cases := map[string]bool{
		"Bombus terrestris":           false,
		"Sciaridae unclassified":      true,
		"Phoridae_X":                  true,
		"Phoridae_XX":                 true,
		"Phoridae_XXX":                true,
		"Xylota segnis":               false,
		"Megaselia_X sp.":             false,
		"Drosophila unclassified_sp1": true,
	}
	for sp, want := range cases {
		if got := r.IsUnclassified(sp); got != want {
			t.Errorf("IsUnclassified(%q) = %v, want %v", sp, got, want)
		}
	}
}

func TestControlPattern(t *testing.T) {
	r := mustRules(t)
	for _, id := range []string{"NegControl1", "POS_ctrl", "air_blank", "neg"} {
		if !r.IsControl(id) {
			t.Errorf("expected %q to be a control", id)
		}
	}
	for _, id := range []string{"sample01", "P1042_L3"} {
		if r.IsControl(id) {
			t.Errorf("expected %q not to be a control", id)
		}
	}
}

func TestFilterTaxaPruneAndPivot(t *testing.T) {
	r := mustRules(t)
	f := wideFrame(
		"Animalia\tArthropoda\tInsecta\tHymenoptera\tApidae\tBombus\tBombus terrestris\tBOLD:AAA1\t25\t90",
		"Animalia\tArthropoda\tInsecta\tOrthoptera\tGryllidae\tGryllus\tGryllus bimaculatus\tBOLD:AAA2\t100\t100",
		"Animalia\tArthropoda\tInsecta\tDiptera\tPhoridae\tMegaselia\tMegaselia_XX\tBOLD:AAA3\t50\t0",
		"Animalia\tMollusca\tGastropoda\tStylommatophora\tArionidae\tArion\tArion vulgaris\tBOLD:AAA4\t60\t0",
		"Animalia\tArthropoda\tInsecta\tDiptera\tSyrphidae\tEpisyrphus\tEpisyrphus balteatus\tBOLD:AAA5\t15\t",
	)
	kept, err := FilterTaxa(f, r)
	if err != nil {
		t.Fatalf("FilterTaxa: %v", err)
	}
	if kept.Len() != 2 {
		t.Fatalf("expected 2 taxa after filter, got %d", kept.Len())
	}
	pruned := Prune(kept)
	if got := strings.Join(pruned.Columns(), ","); got != "Species,FL01_sample01,FL02_NegControl1" {
		t.Fatalf("pruned columns: %s", got)
	}
	long, err := Pivot(pruned, r.SamplePrefix)
	if err != nil {
		t.Fatalf("Pivot: %v", err)
	}
	if len(long) != pruned.Len()*2 {
		t.Fatalf("pivot must be lossless: got %d readings", len(long))
	}
	if long[0].LysateID != "sample01" || long[1].LysateID != "NegControl1" {
		t.Fatalf("prefix not stripped: %+v", long[:2])
	}
	if long[3].Reads != 0 {
		t.Fatalf("empty cell should read as 0, got %d", long[3].Reads)
	}

	final := FilterReadings(long, r)
	if len(final) != 1 {
		t.Fatalf("expected one reading, got %+v", final)
	}
	if final[0] != (Reading{Species: "Bombus terrestris", LysateID: "sample01", Reads: 25}) {
		t.Fatalf("unexpected reading: %+v", final[0])
	}
}

func TestThresholdIsExclusive(t *testing.T) {
	r := mustRules(t)
	rs := []Reading{
		{Species: "a", LysateID: "s1", Reads: 20},
		{Species: "b", LysateID: "s1", Reads: 21},
	}
	out := FilterReadings(rs, r)
	if len(out) != 1 || out[0].Reads != 21 {
		t.Fatalf("unexpected: %+v", out)
	}
}

func TestPivotParseError(t *testing.T) {
	r := mustRules(t)
	f := wideFrame("Animalia\tArthropoda\tInsecta\tHymenoptera\tApidae\tBombus\tBombus terrestris\tBOLD:AAA1\tmany\t1")
	_, err := Pivot(Prune(f), r.SamplePrefix)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.Row != 1 || pe.Column != "FL01_sample01" || pe.Value != "many" {
		t.Fatalf("unexpected error detail: %+v", pe)
	}
}

func TestLysateIDAndCompileErrors(t *testing.T) {
	r := mustRules(t)
	if got := LysateID("FL123_P1042_L3", r.SamplePrefix); got != "P1042_L3" {
		t.Fatalf("LysateID: %s", got)
	}
	if got := LysateID("sample07", r.SamplePrefix); got != "sample07" {
		t.Fatalf("unprefixed header should pass through: %s", got)
	}
	cfg := DefaultRuleConfig()
	cfg.ControlPattern = "("
	if _, err := cfg.Compile(); err == nil {
		t.Fatalf("expected invalid pattern error")
	}
}

func TestPivotKeepsCollidingHeadersApart(t *testing.T) {
	r := mustRules(t)
	for _, header := range []string{"Species\tFL01_ab\tFL01_AB", "Species\tFL01_ab\tFL02_ab"} {
		f, err := table.Read("species.tsv", strings.NewReader(header+"\nBombus terrestris\t25\t300\n"), table.ReadOptions{Delimiter: '\t'})
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		got, err := Pivot(f, r.SamplePrefix)
		if err != nil {
			t.Fatalf("Pivot: %v", err)
		}
		if len(got) != 2 || got[0].Reads != 25 || got[1].Reads != 300 {
			t.Fatalf("%q: each column must keep its own counts, got %+v", header, got)
		}
	}
}
