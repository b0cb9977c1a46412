package chowder

import (
	"sync"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
)

// StaticSettings is a settings source that always wants the same settings,
// the headless (config-file driven) case.
type StaticSettings domain.Settings

func (s StaticSettings) Desired() domain.Settings { return domain.Settings(s) }

// SettingsVar is a mutable settings source safe for concurrent use: a UI or
// remote-control surface calls Set, and the poll cycle picks up the diff on
// its next tick.
type SettingsVar struct {
	mu      sync.Mutex
	desired domain.Settings
}

// NewSettingsVar starts from the given desired settings.
func NewSettingsVar(initial domain.Settings) *SettingsVar {
	return &SettingsVar{desired: initial}
}

func (v *SettingsVar) Desired() domain.Settings {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.desired
}

// Set replaces the desired settings wholesale.
func (v *SettingsVar) Set(s domain.Settings) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.desired = s
}

// Update mutates the desired settings under the lock.
func (v *SettingsVar) Update(fn func(*domain.Settings)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	fn(&v.desired)
}
