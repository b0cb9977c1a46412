// Package hislip adapts a HiSLIP (LAN instrument protocol) client to the
// instrument transport boundary, for counters reachable over ethernet
// instead of a GPIB adapter.
package hislip

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/xiabin827/gohislip"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// errNotTriggered guards against a Read with no preceding trigger; the core
// never does this.
var errNotTriggered = errors.New("hislip: read without a preceding trigger")

// The client's own per-message timeout is set well above the largest read
// timeout the session can request (10x the 10 s maximum gate time); the
// adapter enforces the tighter, gate-time-derived bound per exchange.
const clientTimeout = 2 * time.Minute

// Transport speaks SCPI over a HiSLIP session. HiSLIP carries no
// out-of-band bus trigger in this client, so AssertTrigger arms the
// transport and the following Read delivers the *TRG common command in
// front of fetching the read macro's response.
type Transport struct {
	client *gohislip.Client

	mu      sync.Mutex
	timeout time.Duration
	armed   bool
}

// Dial opens a HiSLIP session to addr (host:port, conventionally :4880) at
// the given sub-address.
func Dial(ctx context.Context, addr, subAddress string) (*Transport, error) {
	cfg := &gohislip.ClientConfig{
		SubAddress: subAddress,
		Timeout:    clientTimeout,
	}
	client, err := gohislip.Dial(ctx, addr, cfg)
	if err != nil {
		return nil, fmt.Errorf("hislip: dial %s: %w", addr, err)
	}
	return &Transport{client: client, timeout: 10 * time.Second}, nil
}

func (t *Transport) Write(command string) error {
	return t.client.Write(command)
}

func (t *Transport) Query(command string) (string, error) {
	resp, err := bounded(t.readTimeout(), func() (string, error) {
		return t.client.Query(command)
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

func (t *Transport) Read() (string, error) {
	t.mu.Lock()
	armed := t.armed
	t.armed = false
	t.mu.Unlock()
	if !armed {
		return "", errNotTriggered
	}
	resp, err := bounded(t.readTimeout(), func() (string, error) {
		return t.client.Query("*TRG")
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp), nil
}

// SetTimeout sets the bound applied to each subsequent Query/Read exchange.
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

// Clear resynchronizes the session after a failed exchange: clear the status
// registers and poll the status byte so the channel is drained. The status
// poll rides the asynchronous HiSLIP channel, so it does not collide with a
// synchronous exchange abandoned by a timeout.
func (t *Transport) Clear() error {
	if err := t.client.Write("*CLS"); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), t.readTimeout())
	defer cancel()
	_, err := t.client.Status(ctx)
	return err
}

func (t *Transport) AssertTrigger() error {
	t.mu.Lock()
	t.armed = true
	t.mu.Unlock()
	return nil
}

// Close tears down the HiSLIP session.
func (t *Transport) Close() error {
	return t.client.Close()
}

// bounded runs one blocking exchange and gives up after d. The exchange
// itself keeps running until the client's own timeout; an abandoned response
// is discarded via the buffered channel.
func bounded(d time.Duration, fn func() (string, error)) (string, error) {
	type result struct {
		resp string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		resp, err := fn()
		ch <- result{resp, err}
	}()

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case r := <-ch:
		return r.resp, r.err
	case <-timer.C:
		return "", fmt.Errorf("hislip: exchange timed out after %s", d)
	}
}

var _ ports.Transport = (*Transport)(nil)
