package domain

import (
	"math"
	"strings"
	"testing"
)

func TestSeriesExtendAndReset(t *testing.T) {
	var s Series
	s.Extend([]Sample{
		{Timestamp: 0.5, Frequency: 10e6, Valid: true, DeadtimeMillis: 3},
		{Timestamp: 1.5, Valid: false, DeadtimeMillis: 4},
	})

	if s.Len() != 2 {
		t.Fatalf("expected 2 samples, got %d", s.Len())
	}
	if s.Frequency[0] != 10e6 {
		t.Fatalf("unexpected frequency: %v", s.Frequency[0])
	}
	if !math.IsNaN(s.Frequency[1]) {
		t.Fatalf("no-reading sample should become NaN, got %v", s.Frequency[1])
	}
	if s.Deadtime[1] != 4 {
		t.Fatalf("unexpected deadtime: %d", s.Deadtime[1])
	}

	s.Reset()
	if s.Len() != 0 {
		t.Fatalf("expected empty series after reset, got %d", s.Len())
	}
}

func TestSeriesWriteTo(t *testing.T) {
	var s Series
	s.Extend([]Sample{
		{Timestamp: 1, Frequency: 9999999.5, Valid: true},
		{Timestamp: 2, Frequency: 1e7, Valid: true},
	})

	var sb strings.Builder
	if _, err := s.WriteTo(&sb); err != nil {
		t.Fatalf("write: %v", err)
	}

	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "Time (s)\tFrequency (Hz)" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "1\t9.9999995e+06" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}
