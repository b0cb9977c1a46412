// Package poller implements the consumer side of the acquisition pipeline:
// the fixed-cadence drain of the shared buffer, the settings-diff-and-apply
// cycle, and the backing-file append.
package poller

import (
	"context"
	"errors"
	"time"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/acquisition"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/counter"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// Poller owns the accumulated series for one acquisition run. Create a new
// Poller per run; the series starts empty.
type Poller struct {
	session   *counter.Session
	loop      *acquisition.Loop
	buf       ports.SampleBuffer
	sink      ports.Sink
	presenter ports.Presenter
	source    ports.SettingsSource
	obs       ports.Observability
	interval  time.Duration

	series domain.Series
}

func New(
	session *counter.Session,
	loop *acquisition.Loop,
	buf ports.SampleBuffer,
	sink ports.Sink,
	presenter ports.Presenter,
	source ports.SettingsSource,
	obs ports.Observability,
	interval time.Duration,
) *Poller {
	return &Poller{
		session:   session,
		loop:      loop,
		buf:       buf,
		sink:      sink,
		presenter: presenter,
		source:    source,
		obs:       obs,
		interval:  interval,
	}
}

// Series returns the accumulated history of this run.
func (p *Poller) Series() *domain.Series { return &p.series }

// Run drains on the fixed cadence while acquisition is active. It returns
// nil when the context is cancelled or the loop goes inactive (after one
// final drain), and an error when a transport failure ends polling early.
// It blocks the calling goroutine; nothing inside a tick does, beyond the
// brief buffer lock.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if !p.loop.Active() {
				p.DrainOnce()
				return nil
			}
			p.DrainOnce()
			if err := p.syncSettings(); err != nil {
				return err
			}
		}
	}
}

// DrainOnce swaps the shared buffer empty, persists what came out, extends
// the series, and publishes the latest reading. Safe to call after the loop
// has stopped to pick up in-flight samples.
func (p *Poller) DrainOnce() {
	start := time.Now()
	samples := p.buf.Drain()
	if len(samples) == 0 {
		return
	}

	if err := p.sink.Append(samples); err != nil {
		p.obs.LogError("sink_append_failed", err, ports.Field{Key: "sink", Value: p.sink.Name()})
	}
	p.series.Extend(samples)

	latest := samples[len(samples)-1]
	p.presenter.Publish(latest, &p.series)

	p.obs.IncCounter("chowder_drains_total", 1)
	if latest.Valid {
		p.obs.SetGauge("chowder_last_frequency_hz", latest.Frequency)
	}
	p.obs.SetGauge("chowder_last_deadtime_ms", float64(latest.DeadtimeMillis))
	p.obs.ObserveLatency("chowder_drain_latency_seconds", time.Since(start).Seconds())
}

// syncSettings diffs the desired settings against the session's applied ones
// and pushes only the changed keys. A ref change re-evaluates the external
// reference lock for the indicator. Validation failures are logged and
// retried next tick; transport failures stop polling.
func (p *Poller) syncSettings() error {
	desired := p.source.Desired()
	changed := desired.Diff(p.session.Applied())
	if len(changed) == 0 {
		return nil
	}

	if err := p.session.ApplySettings(desired, changed); err != nil {
		switch {
		case errors.Is(err, counter.ErrNoInputSignal):
			p.obs.LogError("channel_setup_measurement_failed", err)
		case errors.Is(err, domain.ErrInvalidSetting):
			p.obs.LogError("settings_rejected", err)
			return nil
		default:
			return err
		}
	}

	for _, key := range changed {
		if key != domain.KeyRef {
			continue
		}
		locked, err := p.session.IsExternallyReferenced()
		if err != nil {
			return err
		}
		p.presenter.SetReferenceLock(locked)
		v := 0.0
		if locked {
			v = 1
		}
		p.obs.SetGauge("chowder_ref_locked", v)
	}
	return nil
}
