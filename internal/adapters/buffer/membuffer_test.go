package buffer

import (
	"sync"
	"testing"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
)

func TestDrainReturnsSamplesInOrderAndEmpties(t *testing.T) {
	b := New()
	for i := 0; i < 5; i++ {
		b.Append(domain.Sample{Timestamp: float64(i), Frequency: 1e7, Valid: true})
	}
	if b.Len() != 5 {
		t.Fatalf("expected 5 buffered, got %d", b.Len())
	}

	got := b.Drain()
	if len(got) != 5 {
		t.Fatalf("expected 5 drained, got %d", len(got))
	}
	for i, s := range got {
		if s.Timestamp != float64(i) {
			t.Fatalf("sample %d out of order: %+v", i, s)
		}
	}

	if b.Len() != 0 {
		t.Fatalf("buffer should be empty after drain, got %d", b.Len())
	}
	if b.Drain() != nil {
		t.Fatal("draining an empty buffer should return nil")
	}
}

func TestConcurrentAppendAndDrainDeliversEachSampleOnce(t *testing.T) {
	const writers = 4
	const perWriter = 250

	b := New()
	var wg sync.WaitGroup

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				b.Append(domain.Sample{Timestamp: float64(w*perWriter + i), Valid: true})
			}
		}(w)
	}

	var batches [][]domain.Sample
	stop := make(chan struct{})
	var drainWg sync.WaitGroup
	drainWg.Add(1)
	go func() {
		defer drainWg.Done()
		for {
			select {
			case <-stop:
				batches = append(batches, b.Drain())
				return
			default:
				batches = append(batches, b.Drain())
			}
		}
	}()

	wg.Wait()
	close(stop)
	drainWg.Wait()

	seen := make(map[float64]bool)
	for _, batch := range batches {
		for _, s := range batch {
			if seen[s.Timestamp] {
				t.Fatalf("sample %v delivered twice", s.Timestamp)
			}
			seen[s.Timestamp] = true
		}
	}
	if len(seen) != writers*perWriter {
		t.Fatalf("expected %d unique samples, got %d", writers*perWriter, len(seen))
	}
}
