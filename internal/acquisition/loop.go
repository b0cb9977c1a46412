// Package acquisition runs the trigger/read measurement loop on its own
// goroutine and hands samples to the shared buffer.
package acquisition

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/counter"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// Loop is a single linear state machine, Idle → Running → Idle. Start while
// Running is undefined; callers must not permit it.
type Loop struct {
	session *counter.Session
	buf     ports.SampleBuffer
	obs     ports.Observability

	active  atomic.Bool
	started time.Time
	done    chan struct{}

	// now is swapped out by tests for deterministic deadtime.
	now func() time.Time
}

func NewLoop(session *counter.Session, buf ports.SampleBuffer, obs ports.Observability) *Loop {
	return &Loop{session: session, buf: buf, obs: obs, now: time.Now}
}

// Active reports whether a run is in progress.
func (l *Loop) Active() bool { return l.active.Load() }

// StartedAt returns the start timestamp of the current (or last) run.
func (l *Loop) StartedAt() time.Time { return l.started }

// Done is closed once the loop goroutine has exited and the instrument has
// been returned to continuous mode. Nil before the first Start.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Start records the acquisition start time and begins the loop body on its
// own goroutine. It rejects a run with no applied gate time before touching
// the instrument. Precondition: the loop is not already running.
func (l *Loop) Start() error {
	if l.session.GateTimeMillis() == 0 {
		return fmt.Errorf("acquisition: %w: gate time not applied", domain.ErrInvalidSetting)
	}
	l.started = l.now()
	l.done = make(chan struct{})
	l.active.Store(true)
	go l.run()
	return nil
}

// Stop requests a cooperative stop. The loop observes the flag at the top of
// its next iteration, so worst-case halt latency is one full trigger/read
// cycle, bounded by the transport timeout. Wait on Done before assuming the
// instrument is idle.
func (l *Loop) Stop() { l.active.Store(false) }

func (l *Loop) run() {
	defer close(l.done)

	prevTrigger := l.started
	for l.active.Load() {
		trigger := l.now()
		gate := l.session.GateTimeMillis()
		// Literal deadtime formula: milliseconds between triggers beyond the
		// configured gate duration. Diagnostic, not a correctness gate.
		deadtime := int(math.Round(1000*trigger.Sub(prevTrigger).Seconds() - float64(gate)))
		timestamp := trigger.Sub(l.started).Seconds()
		prevTrigger = trigger

		hz, ok, err := l.session.TakeMeasurement()
		if err != nil {
			l.obs.LogError("measurement_failed", err)
			l.active.Store(false)
			break
		}

		l.buf.Append(domain.Sample{
			Timestamp:      timestamp,
			Frequency:      hz,
			Valid:          ok,
			DeadtimeMillis: deadtime,
		})
		l.obs.IncCounter("chowder_samples_total", 1)
		if !ok {
			l.obs.IncCounter("chowder_no_reading_total", 1)
		}
	}

	// Leave the instrument free-running rather than parked waiting for
	// triggers, whatever ended the loop.
	if err := l.session.ResumeContinuous(); err != nil {
		l.obs.LogError("resume_continuous_failed", err)
	}
}
