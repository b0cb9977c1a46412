package hislip

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBoundedReturnsResultWithinTimeout(t *testing.T) {
	resp, err := bounded(time.Second, func() (string, error) {
		return "10000000.1", nil
	})
	if err != nil || resp != "10000000.1" {
		t.Fatalf("unexpected result: %q %v", resp, err)
	}

	wantErr := errors.New("hislip: session closed")
	_, err = bounded(time.Second, func() (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("exchange error must propagate, got %v", err)
	}
}

func TestBoundedTimesOutSlowExchange(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	_, err := bounded(20*time.Millisecond, func() (string, error) {
		<-release
		return "late", nil
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("bound not enforced, took %s", elapsed)
	}
}

func TestSetTimeoutBoundsSubsequentExchanges(t *testing.T) {
	tr := &Transport{timeout: 10 * time.Second}

	tr.SetTimeout(25 * time.Millisecond)
	if got := tr.readTimeout(); got != 25*time.Millisecond {
		t.Fatalf("timeout not stored, got %s", got)
	}

	release := make(chan struct{})
	defer close(release)
	start := time.Now()
	_, err := bounded(tr.readTimeout(), func() (string, error) {
		<-release
		return "", nil
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("stored timeout not applied, took %s", elapsed)
	}
}

func TestReadRequiresTrigger(t *testing.T) {
	tr := &Transport{timeout: time.Second}
	if _, err := tr.Read(); !errors.Is(err, errNotTriggered) {
		t.Fatalf("expected errNotTriggered, got %v", err)
	}
}
