package chowder

import (
	"context"
	"fmt"
	"time"

	"github.com/soypat/cereal"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/adapters/gpib"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/adapters/hislip"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/adapters/sim"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/app/config"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// buildTransport opens the configured instrument link.
func buildTransport(cfg config.TransportConfig) (ports.Transport, error) {
	switch cfg.Kind {
	case "gpib":
		opener := cereal.Tarm{}
		port, err := opener.OpenPort(cfg.SerialPort, cereal.Mode{
			BaudRate: cfg.BaudRate,
			// The port-level timeout only bounds single reads; the adapter
			// enforces the instrument read timeout on top.
			ReadTimeout: time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("open serial port %s: %w", cfg.SerialPort, err)
		}
		return gpib.New(port, cfg.GPIBAddress)
	case "hislip":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return hislip.Dial(ctx, cfg.Address, cfg.SubAddress)
	case "sim":
		return sim.New(), nil
	}
	return nil, fmt.Errorf("unknown transport kind %q", cfg.Kind)
}
