package ports

import "github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"

// Sink receives each batch of drained samples for persistence. The backing
// log file is the canonical implementation; it is a write-only side channel
// with no read-back contract.
type Sink interface {
	Append(samples []domain.Sample) error
	Name() string
	Close() error
}
