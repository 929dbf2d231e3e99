package utils

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out", "tidy.csv")
	render := func(w io.Writer) error {
		_, err := io.WriteString(w, "species\n")
		return err
	}
	if err := WriteOutput(p, nil, render); err != nil {
		t.Fatalf("WriteOutput: %v", err)
	}
	b, err := os.ReadFile(p)
	if err != nil || string(b) != "species\n" {
		t.Fatalf("file content: %q %v", b, err)
	}
	if _, err := os.Stat(p + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file should be gone")
	}

	var buf bytes.Buffer
	if err := WriteOutput("", &buf, render); err != nil || buf.String() != "species\n" {
		t.Fatalf("stdout path: %q %v", buf.String(), err)
	}

	failed := filepath.Join(dir, "failed.csv")
	boom := errors.New("boom")
	if err := WriteOutput(failed, nil, func(io.Writer) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected render error, got %v", err)
	}
	if _, err := os.Stat(failed); !os.IsNotExist(err) {
		t.Fatalf("no file should be written on render failure")
	}
}
