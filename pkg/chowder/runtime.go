// Package chowder wires the frequency-counter acquisition engine: instrument
// session, acquisition loop, shared buffer, poll/drain cycle, backing log,
// and the Prometheus metrics endpoint.
package chowder

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/acquisition"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/adapters/buffer"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/adapters/logfile"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/adapters/observability"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/app/config"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/app/poller"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/counter"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// Runtime owns one instrument session and drives one acquisition run per
// Run call.
type Runtime struct {
	cfg       *config.Config
	tr        ports.Transport
	obs       ports.Observability
	presenter ports.Presenter
	source    ports.SettingsSource
	buf       ports.SampleBuffer
	sinkOpen  func() (ports.Sink, error)

	session *counter.Session
	loop    *acquisition.Loop

	metricsSrv  *http.Server
	gaugeStopCh chan struct{}
}

// NewRuntime builds a runtime from configuration plus overrides. Without a
// WithTransport override the transport is built from cfg.Transport.
func NewRuntime(cfg *config.Config, opts ...Option) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	var o overrides
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	obs := o.obs
	if obs == nil {
		obs = observability.NewPromObs()
	}

	tr := o.transport
	if tr == nil {
		var err error
		tr, err = buildTransport(cfg.Transport)
		if err != nil {
			return nil, err
		}
	}

	source := o.source
	if source == nil {
		source = StaticSettings(cfg.Settings)
	}

	presenter := o.presenter
	if presenter == nil {
		presenter = headlessPresenter{}
	}

	buf := o.buf
	if buf == nil {
		buf = buffer.New()
	}

	sinkOpen := o.sinkOpen
	if sinkOpen == nil {
		path := cfg.LogFile
		sinkOpen = func() (ports.Sink, error) { return logfile.New(path) }
	}

	session := counter.NewSession(tr, obs)
	return &Runtime{
		cfg:       cfg,
		tr:        tr,
		obs:       obs,
		presenter: presenter,
		source:    source,
		buf:       buf,
		sinkOpen:  sinkOpen,
		session:   session,
		loop:      acquisition.NewLoop(session, buf, obs),
	}, nil
}

// Session exposes the instrument session for callers that drive settings
// directly (must stay on the foreground context).
func (r *Runtime) Session() *counter.Session { return r.session }

// Run performs one acquisition run: connect, apply the initial settings,
// open the backing log, start the loop, and poll until ctx is cancelled or
// acquisition ends. On the way out the instrument is returned to continuous
// mode and the log is closed.
func (r *Runtime) Run(ctx context.Context) error {
	if r.cfg.Metrics.Addr != "" {
		r.startMetrics()
		defer r.stopMetrics()
	}

	idn, err := r.session.Identify()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	r.obs.LogInfo("connected", ports.Field{Key: "idn", Value: idn})

	// Initial apply: channel first triggers initialization and re-asserts
	// the channel-scoped settings.
	desired := r.source.Desired()
	changed := desired.Diff(r.session.Applied())
	if err := r.session.ApplySettings(desired, changed); err != nil {
		if !errors.Is(err, counter.ErrNoInputSignal) {
			return fmt.Errorf("apply initial settings: %w", err)
		}
		r.obs.LogError("channel_setup_measurement_failed", err)
	}
	if locked, err := r.session.IsExternallyReferenced(); err == nil {
		r.presenter.SetReferenceLock(locked)
	} else {
		r.obs.LogError("reference_check_failed", err)
	}

	sink, err := r.sinkOpen()
	if err != nil {
		return err
	}

	if err := r.loop.Start(); err != nil {
		sink.Close()
		return err
	}

	p := poller.New(r.session, r.loop, r.buf, sink, r.presenter, r.source, r.obs, r.cfg.PollInterval())
	pollErr := p.Run(ctx)

	r.loop.Stop()
	// The in-flight measurement is bounded by the transport timeout
	// (10x gate time); wait it out so the resume-continuous command has
	// been sent before the log closes.
	<-r.loop.Done()
	p.DrainOnce()

	if cerr := sink.Close(); cerr != nil && pollErr == nil {
		pollErr = cerr
	}
	return pollErr
}

func (r *Runtime) startMetrics() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.metricsSrv = &http.Server{Addr: r.cfg.Metrics.Addr, Handler: mux}
	go func() {
		if err := r.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server exited: %v", err)
		}
	}()

	r.gaugeStopCh = make(chan struct{})
	go r.recordResourceGauges(r.gaugeStopCh, time.Second)
}

func (r *Runtime) stopMetrics() {
	close(r.gaugeStopCh)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = r.metricsSrv.Shutdown(ctx)
}

func (r *Runtime) recordResourceGauges(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.obs.SetGauge("chowder_buffer_length", float64(r.buf.Len()))
		}
	}
}

// headlessPresenter drops presentation updates; the metrics gauges already
// carry the latest reading.
type headlessPresenter struct{}

func (headlessPresenter) Publish(domain.Sample, *domain.Series) {}
func (headlessPresenter) SetReferenceLock(bool)                 {}
