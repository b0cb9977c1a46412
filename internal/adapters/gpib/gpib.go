// Package gpib adapts a Prologix GPIB controller (USB-serial or AR488
// compatible) to the instrument transport boundary.
package gpib

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/gotmc/prologix"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// Transport drives one instrument at a fixed GPIB address through a Prologix
// controller. Commands and queries go through the controller; the bus
// trigger (++trg) and the post-trigger read (++read eoi) are written to the
// underlying port directly, since they are controller directives rather than
// instrument commands.
type Transport struct {
	ctrl *prologix.Controller
	port io.ReadWriter
	rd   *bufio.Reader

	mu      sync.Mutex
	timeout time.Duration
}

// Option mutates the transport before first use.
type Option func(*Transport)

// WithTimeout sets the initial read timeout.
func WithTimeout(d time.Duration) Option {
	return func(t *Transport) { t.timeout = d }
}

// New wires a Prologix controller on the given serial port to the instrument
// at the given primary address.
func New(port io.ReadWriter, pad int, opts ...Option) (*Transport, error) {
	ctrl, err := prologix.NewController(port, pad, false)
	if err != nil {
		return nil, fmt.Errorf("gpib: new controller: %w", err)
	}
	t := &Transport{
		ctrl:    ctrl,
		port:    port,
		rd:      bufio.NewReader(port),
		timeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

func (t *Transport) Write(command string) error {
	return t.ctrl.Command("%s", command)
}

func (t *Transport) Query(command string) (string, error) {
	resp, err := t.ctrl.Query(command)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

// Read asks the controller to address the instrument as talker and returns
// one response line. Used after a trigger has armed the instrument's read
// macro.
func (t *Transport) Read() (string, error) {
	if _, err := io.WriteString(t.port, "++read eoi\n"); err != nil {
		return "", err
	}
	return t.readLine()
}

func (t *Transport) SetTimeout(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.timeout = d
}

func (t *Transport) readTimeout() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.timeout
}

// Clear sends the Selected Device Clear message and discards anything left
// in the local read buffer.
func (t *Transport) Clear() error {
	if err := t.ctrl.ClearDevice(); err != nil {
		return err
	}
	t.rd.Reset(t.port)
	return nil
}

// AssertTrigger issues the GPIB Group Execute Trigger to the addressed
// instrument.
func (t *Transport) AssertTrigger() error {
	_, err := io.WriteString(t.port, "++trg\n")
	return err
}

// How long to wait before re-polling a serial port that returned no data.
const eofPollInterval = 5 * time.Millisecond

// readLine accumulates bytes until a newline, bounded by the configured
// timeout. Serial ports typically return short (or empty) reads, so this
// loops rather than trusting a single Read call, pausing between empty reads
// so a pending measurement does not spin a core for the whole gate.
func (t *Transport) readLine() (string, error) {
	deadline := time.Now().Add(t.readTimeout())
	var sb strings.Builder
	for {
		b, err := t.rd.ReadByte()
		switch {
		case err == nil:
			if b == '\n' {
				return strings.TrimSpace(sb.String()), nil
			}
			sb.WriteByte(b)
		case err == io.EOF:
			time.Sleep(eofPollInterval)
		default:
			return "", err
		}
		if time.Now().After(deadline) {
			return "", fmt.Errorf("gpib: read timed out after %s", t.readTimeout())
		}
	}
}

var _ ports.Transport = (*Transport)(nil)
