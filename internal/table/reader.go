package table

import (
	"bufio"
	"bytes"
	"compress/bzip2"
	"compress/gzip"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/csimplestring/go-csv/detector"
	"github.com/xi2/xz"
)

// sniffBytes bounds how much of a stream is inspected for delimiter detection.
const sniffBytes = 64 << 10

// ReadOptions controls delimited-file ingestion.
type ReadOptions struct {
	// Delimiter for fields. If 0, it is sniffed from the content, falling back
	// to the file extension.
	Delimiter rune
	// MaxRows limits rows read; 0 means unlimited.
	MaxRows int
}

// ReadFile opens a possibly compressed delimited file and loads it into a Frame.
func ReadFile(path string, opt ReadOptions) (*Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer f.Close()
	rc, err := Decompress(f)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", filepath.Base(path), err)
	}
	defer rc.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = extensionDelimiter(path)
		br := bufio.NewReaderSize(rc, sniffBytes)
		if d, ok := SniffDelimiter(br); ok {
			opt.Delimiter = d
		}
		return Read(filepath.Base(path), br, opt)
	}
	return Read(filepath.Base(path), rc, opt)
}

// Read loads delimited records from r. The first record is the header.
func Read(name string, r io.Reader, opt ReadOptions) (*Frame, error) {
	delim := opt.Delimiter
	if delim == 0 {
		delim = ','
	}
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return New(name, nil), nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	f := New(name, header)
	maxRows := opt.MaxRows
	for {
		if maxRows > 0 && f.Len() >= maxRows {
			break
		}
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", f.Len()+1, err)
		}
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		f.AppendRow(rec)
	}
	return f, nil
}

// Decompress wraps r with a decompressor chosen by magic bytes. Plain
// streams are returned buffered but otherwise unchanged.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, _ := br.Peek(6)
	switch {
	case bytes.HasPrefix(magic, []byte{0x1f, 0x8b}):
		return gzip.NewReader(br)
	case bytes.HasPrefix(magic, []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}):
		zr, err := xz.NewReader(br, 0)
		if err != nil {
			return nil, fmt.Errorf("xz: %w", err)
		}
		return io.NopCloser(zr), nil
	case bytes.HasPrefix(magic, []byte{0x42, 0x5a, 0x68}):
		return io.NopCloser(bzip2.NewReader(br)), nil
	}
	return io.NopCloser(br), nil
}

// ParseDelimiter maps a user-facing delimiter name to a rune.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case "", "auto":
		return 0, nil
	case ",", "comma":
		return ',', nil
	case "\t", "tab", `\t`:
		return '\t', nil
	case ";", "semicolon":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported delimiter: %q (use ',' | ';' | 'tab' | '|' | 'auto')", s)
}

// SniffDelimiter guesses the field delimiter from the buffered head of br
// without consuming it.
func SniffDelimiter(br *bufio.Reader) (rune, bool) {
	sample, _ := br.Peek(sniffBytes)
	if len(sample) == 0 {
		return 0, false
	}
	d := detector.New()
	found := d.DetectDelimiter(bytes.NewReader(sample), '"')
	if len(found) == 0 || found[0] == "" {
		return 0, false
	}
	return rune(found[0][0]), true
}

func extensionDelimiter(path string) rune {
	name := strings.ToLower(path)
	for _, ext := range []string{".gz", ".xz", ".bz2"} {
		name = strings.TrimSuffix(name, ext)
	}
	if strings.HasSuffix(name, ".tsv") || strings.HasSuffix(name, ".txt") {
		return '\t'
	}
	return ','
}
