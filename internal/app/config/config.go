package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
)

// Config is the full runtime configuration loaded from YAML.
type Config struct {
	Transport          TransportConfig `yaml:"transport"`
	Settings           domain.Settings `yaml:"settings"`
	PollIntervalMillis int             `yaml:"poll_interval_ms"`
	LogFile            string          `yaml:"log_file"`
	Metrics            MetricsConfig   `yaml:"metrics"`
}

// PollInterval is the poll/drain cadence as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMillis) * time.Millisecond
}

// TransportConfig selects and parameterizes the instrument link.
type TransportConfig struct {
	Kind string `yaml:"kind"` // "gpib", "hislip" or "sim"

	// gpib
	SerialPort  string `yaml:"serial_port"`
	BaudRate    int    `yaml:"baud_rate"`
	GPIBAddress int    `yaml:"gpib_address"`

	// hislip
	Address    string `yaml:"address"`
	SubAddress string `yaml:"sub_address"`
}

type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads and validates a YAML config file. Settings fields absent from
// the file stay at their unknown sentinel rather than decoding to zero.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Config{Settings: domain.UnknownSettings()}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Transport.Kind == "" {
		c.Transport.Kind = "gpib"
	}
	if c.Transport.BaudRate == 0 {
		c.Transport.BaudRate = 115200
	}
	if c.Transport.SubAddress == "" {
		c.Transport.SubAddress = "hislip0"
	}
	if c.PollIntervalMillis == 0 {
		c.PollIntervalMillis = 200
	}
	if c.LogFile == "" {
		c.LogFile = "./current_data.txt"
	}
	if c.Metrics.Addr == "" {
		c.Metrics.Addr = ":9100"
	}
}

func (c *Config) validate() error {
	switch c.Transport.Kind {
	case "gpib":
		if c.Transport.SerialPort == "" {
			return fmt.Errorf("transport.serial_port is required for kind gpib")
		}
		if c.Transport.GPIBAddress < 0 || c.Transport.GPIBAddress > 30 {
			return fmt.Errorf("transport.gpib_address %d outside 0..30", c.Transport.GPIBAddress)
		}
	case "hislip":
		if c.Transport.Address == "" {
			return fmt.Errorf("transport.address is required for kind hislip")
		}
	case "sim":
	default:
		return fmt.Errorf("transport.kind %q not one of gpib, hislip, sim", c.Transport.Kind)
	}

	if err := c.Settings.Validate(); err != nil {
		return err
	}
	// A run cannot start without a channel and a gate time.
	if !c.Settings.Known(domain.KeyChannel) {
		return fmt.Errorf("settings.channel is required")
	}
	if !c.Settings.Known(domain.KeyGateTime) {
		return fmt.Errorf("settings.gatetime_ms is required")
	}
	if c.PollIntervalMillis < 10 {
		return fmt.Errorf("poll_interval_ms %d too short; minimum 10", c.PollIntervalMillis)
	}
	return nil
}
