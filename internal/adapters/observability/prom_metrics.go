package observability

import (
	"fmt"
	"log"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// PromObs implements ports.Observability on the default Prometheus registry
// plus the standard logger.
type PromObs struct {
	counters map[string]prometheus.Counter
	gauges   map[string]prometheus.Gauge
	histos   map[string]prometheus.Observer
}

// NewPromObs registers on the default registry. One per process; a second
// construction panics on duplicate registration, so embedders running several
// runtimes should use NewPromObsOn with their own registries.
func NewPromObs() *PromObs {
	return NewPromObsOn(prometheus.DefaultRegisterer)
}

// NewPromObsOn registers the metric set on the given registerer.
func NewPromObsOn(reg prometheus.Registerer) *PromObs {
	samples := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chowder_samples_total",
		Help: "Total samples produced by the acquisition loop.",
	})
	noReading := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chowder_no_reading_total",
		Help: "Samples whose instrument response did not parse as a number.",
	})
	drains := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chowder_drains_total",
		Help: "Buffer drains performed by the poll cycle.",
	})
	commands := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "chowder_commands_sent_total",
		Help: "SCPI commands written to the instrument.",
	})
	lastFreq := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chowder_last_frequency_hz",
		Help: "Most recent valid frequency reading.",
	})
	lastDead := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chowder_last_deadtime_ms",
		Help: "Most recent per-sample deadtime.",
	})
	bufLen := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chowder_buffer_length",
		Help: "Samples currently waiting in the shared buffer.",
	})
	refLocked := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "chowder_ref_locked",
		Help: "1 when the counter is locked to the external reference.",
	})
	drainLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "chowder_drain_latency_seconds",
		Help:    "Time spent per poll cycle draining and persisting samples.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})

	reg.MustRegister(samples, noReading, drains, commands,
		lastFreq, lastDead, bufLen, refLocked, drainLatency)

	return &PromObs{
		counters: map[string]prometheus.Counter{
			"chowder_samples_total":       samples,
			"chowder_no_reading_total":    noReading,
			"chowder_drains_total":        drains,
			"chowder_commands_sent_total": commands,
		},
		gauges: map[string]prometheus.Gauge{
			"chowder_last_frequency_hz": lastFreq,
			"chowder_last_deadtime_ms":  lastDead,
			"chowder_buffer_length":     bufLen,
			"chowder_ref_locked":        refLocked,
		},
		histos: map[string]prometheus.Observer{
			"chowder_drain_latency_seconds": drainLatency,
		},
	}
}

func (p *PromObs) LogInfo(msg string, fields ...ports.Field) {
	log.Printf("INFO: %s%s", msg, formatFields(fields))
}

func (p *PromObs) LogError(msg string, err error, fields ...ports.Field) {
	if err != nil {
		log.Printf("ERROR: %s: %v%s", msg, err, formatFields(fields))
	}
}

func (p *PromObs) IncCounter(name string, v float64) {
	if c, ok := p.counters[name]; ok {
		c.Add(v)
	}
}

func (p *PromObs) SetGauge(name string, v float64) {
	if g, ok := p.gauges[name]; ok {
		g.Set(v)
	}
}

func (p *PromObs) ObserveLatency(name string, seconds float64) {
	if h, ok := p.histos[name]; ok {
		h.Observe(seconds)
	}
}

func formatFields(fields []ports.Field) string {
	out := ""
	for _, f := range fields {
		out += fmt.Sprintf(" %s=%v", f.Key, f.Value)
	}
	return out
}
