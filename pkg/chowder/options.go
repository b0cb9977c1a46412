package chowder

import "github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"

// Option customizes the dependencies used by Runtime.
type Option func(*overrides)

type overrides struct {
	transport ports.Transport
	obs       ports.Observability
	presenter ports.Presenter
	source    ports.SettingsSource
	buf       ports.SampleBuffer
	sinkOpen  func() (ports.Sink, error)
}

// WithTransport injects a custom instrument transport (simulator, test
// double, alternative bus adapter).
func WithTransport(tr ports.Transport) Option {
	return func(o *overrides) { o.transport = tr }
}

// WithObservability overrides the default Prometheus-backed observability.
func WithObservability(obs ports.Observability) Option {
	return func(o *overrides) { o.obs = obs }
}

// WithPresenter injects the presentation layer that consumes readings and
// the reference-lock indicator.
func WithPresenter(p ports.Presenter) Option {
	return func(o *overrides) { o.presenter = p }
}

// WithSettingsSource overrides the static config-backed settings with a
// live source (for example a SettingsVar driven by a UI).
func WithSettingsSource(s ports.SettingsSource) Option {
	return func(o *overrides) { o.source = s }
}

// WithBuffer swaps the shared sample buffer implementation.
func WithBuffer(b ports.SampleBuffer) Option {
	return func(o *overrides) { o.buf = b }
}

// WithSinkOpener overrides how the per-run backing sink is opened.
func WithSinkOpener(open func() (ports.Sink, error)) Option {
	return func(o *overrides) { o.sinkOpen = open }
}
