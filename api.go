package chowder

import (
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/app/config"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/counter"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
	base "github.com/UCBoulder/clam-chowder-frequency-counter/pkg/chowder"
)

// Re-exported errors for convenience.
var (
	ErrNoInputSignal  = counter.ErrNoInputSignal
	ErrInvalidSetting = domain.ErrInvalidSetting
)

// Type aliases so consumers can import the module root directly.
type (
	Config          = config.Config
	TransportConfig = config.TransportConfig
	MetricsConfig   = config.MetricsConfig
	Settings        = domain.Settings
	Key             = domain.Key
	Sample          = domain.Sample
	Series          = domain.Series
	Session         = counter.Session
	Runtime         = base.Runtime
	Option          = base.Option
	SettingsVar     = base.SettingsVar
	StaticSettings  = base.StaticSettings
)

// Setting keys.
const (
	KeyChannel        = domain.KeyChannel
	KeyInputImpedance = domain.KeyInputImpedance
	KeyInputCoupling  = domain.KeyInputCoupling
	KeyRef            = domain.KeyRef
	KeyAttenuation    = domain.KeyAttenuation
	KeyLPF            = domain.KeyLPF
	KeyDisplay        = domain.KeyDisplay
	KeyGateTime       = domain.KeyGateTime
)

// LoadConfig loads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	return config.Load(path)
}

// UnknownSettings returns a Settings with every field at its unknown
// sentinel.
func UnknownSettings() Settings {
	return domain.UnknownSettings()
}

// NewRuntime builds the acquisition runtime from configuration plus
// overrides.
func NewRuntime(cfg *Config, opts ...Option) (*Runtime, error) {
	return base.NewRuntime(cfg, opts...)
}

// NewSettingsVar builds a mutable settings source for live control.
func NewSettingsVar(initial Settings) *SettingsVar {
	return base.NewSettingsVar(initial)
}

// Runtime dependency overrides.
var (
	WithTransport      = base.WithTransport
	WithObservability  = base.WithObservability
	WithPresenter      = base.WithPresenter
	WithSettingsSource = base.WithSettingsSource
	WithBuffer         = base.WithBuffer
	WithSinkOpener     = base.WithSinkOpener
)
