package ports

import "github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"

// SampleBuffer is the shared hand-off between the acquisition loop (producer)
// and the poll/drain cycle (consumer). Append and Drain must be mutually
// exclusive; Drain atomically takes ownership of everything buffered so far,
// so no sample is ever delivered twice or lost.
type SampleBuffer interface {
	Append(s domain.Sample)
	Drain() []domain.Sample
	Len() int
}
