package logfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
)

func TestAppendWritesTabSeparatedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current_data.txt")

	lf, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	err = lf.Append([]domain.Sample{
		{Timestamp: 0.1, Frequency: 9999999.5, Valid: true},
		{Timestamp: 0.2, Valid: false},
	})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := lf.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines:\n%s", len(lines), data)
	}
	if lines[0] != "Time (s)\tFrequency (Hz)" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "0.1\t9.9999995e+06" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
	if lines[2] != "0.2\tNaN" {
		t.Fatalf("no-reading row should record NaN, got %q", lines[2])
	}
}

func TestNewTruncatesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current_data.txt")

	first, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := first.Append([]domain.Sample{{Timestamp: 1, Frequency: 1e7, Valid: true}}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if err := second.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "Time (s)\tFrequency (Hz)\n" {
		t.Fatalf("reopen should truncate to header only, got %q", data)
	}
}

func TestAppendFlushesEachBatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "current_data.txt")

	lf, err := New(path)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer lf.Close()

	if err := lf.Append([]domain.Sample{{Timestamp: 1, Frequency: 1e7, Valid: true}}); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Readable before Close: the writer flushes per batch.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(data), "1\t1e+07") {
		t.Fatalf("row not flushed, file holds %q", data)
	}

	if lf.Name() != path {
		t.Fatalf("unexpected name: %q", lf.Name())
	}
}
