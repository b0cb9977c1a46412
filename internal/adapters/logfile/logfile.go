// Package logfile writes the backing log: plain two-column tab-separated
// text, one row per drained sample, opened fresh for each acquisition run.
package logfile

import (
	"bufio"
	"fmt"
	"os"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

const header = "Time (s)\tFrequency (Hz)\n"

type LogFile struct {
	path   string
	file   *os.File
	writer *bufio.Writer
}

// New truncates (or creates) the file at path and writes the header. Call
// once at the start of each run.
func New(path string) (*LogFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	w := bufio.NewWriter(f)
	if _, err := w.WriteString(header); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, err
	}
	return &LogFile{path: path, file: f, writer: w}, nil
}

func (l *LogFile) Name() string { return l.path }

// Append writes one timestamp/frequency row per sample and flushes, so the
// file stays current even if the process dies mid-run.
func (l *LogFile) Append(samples []domain.Sample) error {
	for _, s := range samples {
		freq := "NaN"
		if s.Valid {
			freq = domain.FormatFloat(s.Frequency)
		}
		if _, err := l.writer.WriteString(domain.FormatFloat(s.Timestamp) + "\t" + freq + "\n"); err != nil {
			return err
		}
	}
	return l.writer.Flush()
}

func (l *LogFile) Close() error {
	if err := l.writer.Flush(); err != nil {
		l.file.Close()
		return err
	}
	return l.file.Close()
}

var _ ports.Sink = (*LogFile)(nil)
