package gpib

import (
	"bufio"
	"io"
	"strings"
	"testing"
	"time"
)

// chunkedReader hands out its chunks one Read at a time; an empty chunk
// models a serial port with no data pending yet.
type chunkedReader struct {
	chunks [][]byte
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, io.EOF
	}
	c := r.chunks[0]
	r.chunks = r.chunks[1:]
	if len(c) == 0 {
		return 0, io.EOF
	}
	return copy(p, c), nil
}

func TestReadLineToleratesEmptyReads(t *testing.T) {
	r := &chunkedReader{chunks: [][]byte{
		nil,
		nil,
		[]byte("9.9999"),
		nil,
		[]byte("995e6\r\n"),
	}}
	tr := &Transport{rd: bufio.NewReader(r), timeout: time.Second}

	got, err := tr.readLine()
	if err != nil {
		t.Fatalf("readLine: %v", err)
	}
	if got != "9.9999995e6" {
		t.Fatalf("unexpected line %q", got)
	}
}

func TestReadLinePausesBetweenEmptyReads(t *testing.T) {
	tr := &Transport{rd: bufio.NewReader(&chunkedReader{}), timeout: 30 * time.Millisecond}

	start := time.Now()
	_, err := tr.readLine()
	elapsed := time.Since(start)

	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("expected timeout error, got %v", err)
	}
	if elapsed < 30*time.Millisecond {
		t.Fatalf("returned before the deadline: %s", elapsed)
	}
	// With the poll pause in place the loop runs a handful of iterations,
	// not millions; anything wildly past the deadline means it slept on the
	// wrong branch.
	if elapsed > time.Second {
		t.Fatalf("took too long: %s", elapsed)
	}
}
