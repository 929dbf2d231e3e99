package table

import (
	"bytes"
	"compress/gzip"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/guregu/null.v3"
)

func TestReadFileTSVAndLookup(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "species.tsv")
	content := "Species\tFL01_s1\tFL02_s2\n" +
		"Bombus terrestris\t25\t3\n" +
		"\n" +
		"Apis mellifera\t\t40\n"
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := ReadFile(p, ReadOptions{Delimiter: '\t'})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if f.Len() != 2 {
		t.Fatalf("expected 2 rows (blank line skipped), got %d", f.Len())
	}
	if got := f.Value(1, "species"); got != "Apis mellifera" {
		t.Fatalf("case-insensitive lookup: got %q", got)
	}
	if got := f.Value(1, "FL01_s1"); got != "" {
		t.Fatalf("expected empty cell, got %q", got)
	}
	if err := f.Require("Species", "Genus"); err == nil {
		t.Fatalf("expected missing column error")
	} else {
		var mc *MissingColumnError
		if !errors.As(err, &mc) || mc.Column != "Genus" {
			t.Fatalf("unexpected error: %v", err)
		}
	}
}

func TestReadFileGzipAndSniff(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "meta.csv.gz")
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	rows := []string{
		"trap_ID;lysate_ID;habitat",
		"T1;L1;Forest",
		"T2;L2;Wetland",
		"T3;L3;Urban",
	}
	if _, err := zw.Write([]byte(strings.Join(rows, "\n"))); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	if err := os.WriteFile(p, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	f, err := ReadFile(p, ReadOptions{})
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(f.Columns()) != 3 {
		t.Fatalf("expected semicolon to be sniffed, columns=%v", f.Columns())
	}
	if f.Value(2, "habitat") != "Urban" {
		t.Fatalf("unexpected value: %q", f.Value(2, "habitat"))
	}
}

func TestFilterDropRename(t *testing.T) {
	f := New("t", []string{"A", "B", "C"})
	f.AppendRow([]string{"1", "x", "p"})
	f.AppendRow([]string{"2", "y"})
	f.AppendRow([]string{"3", "z", "r", "extra"})

	kept := f.Filter(func(r int) bool { return f.Value(r, "A") != "2" })
	if kept.Len() != 2 || kept.Value(1, "B") != "z" {
		t.Fatalf("filter: len=%d", kept.Len())
	}
	if f.Value(1, "C") != "" {
		t.Fatalf("short row should be padded")
	}
	d := kept.Drop("a", "missing")
	if strings.Join(d.Columns(), ",") != "B,C" {
		t.Fatalf("drop: %v", d.Columns())
	}
	if d.Len() != 2 || d.Value(0, "C") != "p" {
		t.Fatalf("drop values: %v", d.Value(0, "C"))
	}
	rn := d.Rename(strings.ToLower)
	if !rn.Has("b") || rn.Columns()[0] != "b" {
		t.Fatalf("rename: %v", rn.Columns())
	}
}

func TestParseFloatAndCount(t *testing.T) {
	floats := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"59.8586", 59.8586, true},
		{"59,8586", 59.8586, true},
		{"1.234,5", 1234.5, true},
		{"", 0, false},
		{"NA", 0, false},
	}
	for _, tc := range floats {
		got, ok := ParseFloat(tc.in)
		if ok != tc.ok || (ok && got != tc.want) {
			t.Errorf("ParseFloat(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
	counts := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"25", 25, false},
		{"", 0, false},
		{"25.0", 25, false},
		{"2.5", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range counts {
		got, err := ParseCount(tc.in)
		if (err != nil) != tc.wantErr || got != tc.want {
			t.Errorf("ParseCount(%q) = %v,%v", tc.in, got, err)
		}
	}
}

func TestParseDelimiter(t *testing.T) {
	if d, err := ParseDelimiter("tab"); err != nil || d != '\t' {
		t.Fatalf("tab: %v %v", d, err)
	}
	if d, err := ParseDelimiter(""); err != nil || d != 0 {
		t.Fatalf("empty: %v %v", d, err)
	}
	if _, err := ParseDelimiter("#"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestColAtKeepsCollidingColumns(t *testing.T) {
	f, err := Read("t.tsv", strings.NewReader("a\tA\n1\t2\n"), ReadOptions{Delimiter: '\t'})
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if v, _ := f.Col("A"); v[0] != "1" {
		t.Fatalf("name lookup keeps the first column, got %q", v[0])
	}
	if got := f.ColAt(1); len(got) != 1 || got[0] != "2" {
		t.Fatalf("ColAt(1) = %v", got)
	}
	if f.ColAt(2) != nil || f.ColAt(-1) != nil {
		t.Fatalf("out-of-range ColAt should be nil")
	}
}

func TestFormatNullable(t *testing.T) {
	if got := FormatFloat(null.FloatFrom(59.85)); got != "59.85" {
		t.Fatalf("FormatFloat: %q", got)
	}
	if got := FormatFloat(null.Float{}); got != "" {
		t.Fatalf("null float should be empty, got %q", got)
	}
	if got := FormatInt(null.IntFrom(24)); got != "24" {
		t.Fatalf("FormatInt: %q", got)
	}
	if got := FormatInt(null.Int{}); got != "" {
		t.Fatalf("null int should be empty, got %q", got)
	}
}
