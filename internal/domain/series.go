package domain

import (
	"bufio"
	"io"
	"math"
	"strconv"
)

// Series holds the accumulated time/frequency/deadtime history of one
// acquisition run, built by concatenating successive buffer drains. It is
// owned by the consumer and reset at the start of the next run.
type Series struct {
	Time      []float64
	Frequency []float64 // NaN where the sample had no reading
	Deadtime  []int
}

// Extend appends the drained samples to the series.
func (s *Series) Extend(samples []Sample) {
	for _, sm := range samples {
		s.Time = append(s.Time, sm.Timestamp)
		s.Frequency = append(s.Frequency, frequencyValue(sm))
		s.Deadtime = append(s.Deadtime, sm.DeadtimeMillis)
	}
}

// Len returns the number of accumulated samples.
func (s *Series) Len() int { return len(s.Time) }

// Reset discards the accumulated history.
func (s *Series) Reset() {
	s.Time = s.Time[:0]
	s.Frequency = s.Frequency[:0]
	s.Deadtime = s.Deadtime[:0]
}

// WriteTo writes the series as two-column tab-separated text with the
// standard header, the same format as the backing log file.
func (s *Series) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	c, err := bw.WriteString("Time (s)\tFrequency (Hz)\n")
	n += int64(c)
	if err != nil {
		return n, err
	}
	for i := range s.Time {
		c, err = bw.WriteString(FormatFloat(s.Time[i]) + "\t" + FormatFloat(s.Frequency[i]) + "\n")
		n += int64(c)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}

// FormatFloat renders a float the way the log file expects: shortest exact
// representation, "NaN" for missing readings.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func frequencyValue(s Sample) float64 {
	if !s.Valid {
		return math.NaN()
	}
	return s.Frequency
}
