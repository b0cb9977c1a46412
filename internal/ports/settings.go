package ports

import "github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"

// SettingsSource is the configuration boundary: it supplies the settings the
// operator currently wants applied. The poll cycle diffs this against the
// session's applied settings every tick and pushes only the changed keys.
type SettingsSource interface {
	Desired() domain.Settings
}
