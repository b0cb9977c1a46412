// Package sim is a simulated frequency counter behind the transport
// boundary: it understands exactly the command templates the session
// composes, so the full pipeline can run without hardware.
package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// Instrument is a fake counter producing readings around a base frequency
// with gaussian jitter. The gate timer command sets how long a triggered
// read blocks, scaled by TimeScale (0 disables pacing entirely, which tests
// use).
type Instrument struct {
	mu           sync.Mutex
	base         float64
	jitter       float64
	extDeviation float64
	timeScale    float64
	gate         time.Duration
	timeout      time.Duration
	armed        bool
	rng          *rand.Rand
}

// Option configures the simulated instrument.
type Option func(*Instrument)

// WithBaseFrequency sets the simulated carrier in Hz.
func WithBaseFrequency(hz float64) Option {
	return func(i *Instrument) { i.base = hz }
}

// WithJitter sets the reading spread in Hz.
func WithJitter(hz float64) Option {
	return func(i *Instrument) { i.jitter = hz }
}

// WithExternalDeviation sets the value answered to the external reference
// frequency query. The no-lock sentinel is 9.91e37.
func WithExternalDeviation(hz float64) Option {
	return func(i *Instrument) { i.extDeviation = hz }
}

// WithTimeScale scales how long a triggered read blocks relative to the
// configured gate time. 0 makes reads return immediately.
func WithTimeScale(scale float64) Option {
	return func(i *Instrument) { i.timeScale = scale }
}

func New(opts ...Option) *Instrument {
	i := &Instrument{
		base:         10e6,
		jitter:       0.05,
		extDeviation: 9.91e37,
		timeScale:    1,
		gate:         time.Second,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Instrument) Write(command string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, sub := range strings.Split(command, ";") {
		i.handle(sub)
	}
	return nil
}

func (i *Instrument) handle(sub string) {
	lower := strings.ToLower(strings.TrimSpace(sub))
	const gateCmd = ":sense:frequency:arm:stop:timer "
	if strings.HasPrefix(lower, gateCmd) {
		if sec, err := strconv.ParseFloat(lower[len(gateCmd):], 64); err == nil {
			i.gate = time.Duration(sec * float64(time.Second))
		}
	}
}

func (i *Instrument) Query(command string) (string, error) {
	switch strings.ToUpper(strings.TrimSpace(command)) {
	case "*IDN?":
		return "Hewlett-Packard,53131A,0,SIM.1.0", nil
	case ":READ?":
		return i.reading(), nil
	case ":SENS:ROSC:EXT:FREQ?":
		i.mu.Lock()
		defer i.mu.Unlock()
		return strconv.FormatFloat(i.extDeviation, 'g', -1, 64), nil
	case "*TRG":
		// LAN-style combined trigger+fetch.
		i.pace()
		return i.reading(), nil
	}
	return "", fmt.Errorf("sim: unsupported query %q", command)
}

func (i *Instrument) Read() (string, error) {
	i.mu.Lock()
	armed := i.armed
	i.armed = false
	i.mu.Unlock()
	if !armed {
		return "", errors.New("sim: read with no trigger pending")
	}
	i.pace()
	return i.reading(), nil
}

func (i *Instrument) SetTimeout(d time.Duration) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.timeout = d
}

func (i *Instrument) Clear() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.armed = false
	return nil
}

func (i *Instrument) AssertTrigger() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.armed = true
	return nil
}

func (i *Instrument) reading() string {
	i.mu.Lock()
	defer i.mu.Unlock()
	hz := i.base + i.rng.NormFloat64()*i.jitter
	return strconv.FormatFloat(hz, 'g', 17, 64)
}

func (i *Instrument) pace() {
	i.mu.Lock()
	gate := time.Duration(float64(i.gate) * i.timeScale)
	i.mu.Unlock()
	if gate > 0 {
		time.Sleep(gate)
	}
}

var _ ports.Transport = (*Instrument)(nil)
