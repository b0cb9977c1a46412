package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chowder.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: gpib
  serial_port: /dev/ttyUSB0
  gpib_address: 3
settings:
  channel: 1
  input_impedance: "1E6"
  input_coupling: AC
  ref: EXT
  attenuation: 0
  lpf: 1
  display: 1
  gatetime_ms: 1000
poll_interval_ms: 500
log_file: /tmp/data.txt
metrics:
  addr: ":9200"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Transport.Kind != "gpib" || cfg.Transport.SerialPort != "/dev/ttyUSB0" || cfg.Transport.GPIBAddress != 3 {
		t.Fatalf("unexpected transport: %+v", cfg.Transport)
	}
	if cfg.Settings.Channel != 1 || cfg.Settings.Ref != "EXT" || cfg.Settings.GateTime != 1000 {
		t.Fatalf("unexpected settings: %+v", cfg.Settings)
	}
	if cfg.Settings.LPF != 1 || cfg.Settings.Attenuation != 0 {
		t.Fatalf("unexpected toggles: %+v", cfg.Settings)
	}
	if cfg.PollInterval() != 500*time.Millisecond {
		t.Fatalf("unexpected poll interval: %s", cfg.PollInterval())
	}
	if cfg.LogFile != "/tmp/data.txt" || cfg.Metrics.Addr != ":9200" {
		t.Fatalf("unexpected output config: %+v", cfg)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
transport:
  serial_port: /dev/ttyUSB1
settings:
  channel: 2
  gatetime_ms: 100
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Transport.Kind != "gpib" {
		t.Fatalf("expected default kind gpib, got %q", cfg.Transport.Kind)
	}
	if cfg.Transport.BaudRate != 115200 {
		t.Fatalf("expected default baud rate, got %d", cfg.Transport.BaudRate)
	}
	if cfg.PollInterval() != 200*time.Millisecond {
		t.Fatalf("expected default poll interval, got %s", cfg.PollInterval())
	}
	if cfg.LogFile != "./current_data.txt" {
		t.Fatalf("expected default log file, got %q", cfg.LogFile)
	}
	if cfg.Metrics.Addr != ":9100" {
		t.Fatalf("expected default metrics addr, got %q", cfg.Metrics.Addr)
	}
}

func TestLoadKeepsAbsentSettingsUnknown(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: sim
settings:
  channel: 1
  gatetime_ms: 100
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, key := range []domain.Key{
		domain.KeyInputImpedance,
		domain.KeyInputCoupling,
		domain.KeyRef,
		domain.KeyAttenuation,
		domain.KeyLPF,
		domain.KeyDisplay,
	} {
		if cfg.Settings.Known(key) {
			t.Fatalf("absent setting %s should stay unknown, got %+v", key, cfg.Settings)
		}
	}
}

func TestLoadValidationFailures(t *testing.T) {
	cases := []struct {
		name    string
		yaml    string
		wantSub string
	}{
		{
			name: "unknown kind",
			yaml: `
transport:
  kind: usbtmc
settings:
  channel: 1
  gatetime_ms: 100
`,
			wantSub: "transport.kind",
		},
		{
			name: "gpib without serial port",
			yaml: `
transport:
  kind: gpib
settings:
  channel: 1
  gatetime_ms: 100
`,
			wantSub: "serial_port",
		},
		{
			name: "hislip without address",
			yaml: `
transport:
  kind: hislip
settings:
  channel: 1
  gatetime_ms: 100
`,
			wantSub: "transport.address",
		},
		{
			name: "missing channel",
			yaml: `
transport:
  kind: sim
settings:
  gatetime_ms: 100
`,
			wantSub: "settings.channel",
		},
		{
			name: "missing gate time",
			yaml: `
transport:
  kind: sim
settings:
  channel: 1
`,
			wantSub: "gatetime_ms",
		},
		{
			name: "poll interval too short",
			yaml: `
transport:
  kind: sim
settings:
  channel: 1
  gatetime_ms: 100
poll_interval_ms: 1
`,
			wantSub: "poll_interval_ms",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantSub) {
				t.Fatalf("expected error mentioning %q, got %v", tc.wantSub, err)
			}
		})
	}
}

func TestLoadRejectsOutOfRangeSettings(t *testing.T) {
	path := writeConfig(t, `
transport:
  kind: sim
settings:
  channel: 1
  gatetime_ms: 100
  input_coupling: GND
`)

	_, err := Load(path)
	if !errors.Is(err, domain.ErrInvalidSetting) {
		t.Fatalf("expected ErrInvalidSetting, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
