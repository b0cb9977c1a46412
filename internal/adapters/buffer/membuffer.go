package buffer

import (
	"sync"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// MemBuffer is the append-only shared buffer between the acquisition loop
// and the poll/drain cycle. Drain swaps the backing slice for an empty one,
// so the lock is held only for the swap, never for the O(n) copy into the
// accumulated series.
type MemBuffer struct {
	mu   sync.Mutex
	data []domain.Sample
}

func New() *MemBuffer {
	return &MemBuffer{}
}

func (b *MemBuffer) Append(s domain.Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data, s)
}

// Drain atomically takes ownership of everything buffered so far, leaving
// the buffer empty. Returns nil when nothing is buffered.
func (b *MemBuffer) Drain() []domain.Sample {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.data) == 0 {
		return nil
	}
	out := b.data
	b.data = nil
	return out
}

func (b *MemBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

var _ ports.SampleBuffer = (*MemBuffer)(nil)
