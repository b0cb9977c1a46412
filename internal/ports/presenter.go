package ports

import "github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"

// Presenter is the presentation boundary: whatever renders readings (GUI,
// TUI, headless logger) consumes the most recent sample plus the full
// accumulated series after every drain that produced data, and the
// reference-lock state whenever the reference source changes.
type Presenter interface {
	Publish(latest domain.Sample, series *domain.Series)
	SetReferenceLock(locked bool)
}
