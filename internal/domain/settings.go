package domain

import (
	"errors"
	"fmt"
)

// Key names one instrument setting. The set of keys is fixed.
type Key string

const (
	KeyChannel        Key = "channel"
	KeyInputImpedance Key = "input_impedance"
	KeyInputCoupling  Key = "input_coupling"
	KeyRef            Key = "ref"
	KeyAttenuation    Key = "attenuation"
	KeyLPF            Key = "lpf"
	KeyDisplay        Key = "display"
	KeyGateTime       Key = "gatetime"
)

// Keys lists every setting in canonical application order. Channel comes
// first because a channel change re-asserts the channel-scoped settings.
var Keys = []Key{
	KeyChannel,
	KeyInputImpedance,
	KeyInputCoupling,
	KeyRef,
	KeyAttenuation,
	KeyLPF,
	KeyDisplay,
	KeyGateTime,
}

// Unset is the unknown sentinel for the on/off settings, whose zero value 0
// is a meaningful state.
const Unset = -1

// ErrInvalidSetting is wrapped by every settings validation failure.
var ErrInvalidSetting = errors.New("invalid setting")

// Settings is the full instrument configuration. Every key is always
// present; a field holds its unknown sentinel until a value has been applied.
// Unknown values are never coerced to defaults.
type Settings struct {
	Channel        int    `yaml:"channel"`         // 1, 2 or 3; 0 = unknown
	InputImpedance string `yaml:"input_impedance"` // "50" or "1E6"; "" = unknown
	InputCoupling  string `yaml:"input_coupling"`  // "AC" or "DC"; "" = unknown
	Ref            string `yaml:"ref"`             // "INT" or "EXT"; "" = unknown
	Attenuation    int    `yaml:"attenuation"`     // 0 or 1; Unset = unknown
	LPF            int    `yaml:"lpf"`             // 0 or 1; Unset = unknown
	Display        int    `yaml:"display"`         // 0 or 1; Unset = unknown
	GateTime       int    `yaml:"gatetime_ms"`     // milliseconds in (1,10000]; 0 = unknown
}

// UnknownSettings returns a Settings with every field at its unknown
// sentinel, the state after connect/refresh before anything is applied.
func UnknownSettings() Settings {
	return Settings{
		Attenuation: Unset,
		LPF:         Unset,
		Display:     Unset,
	}
}

// Known reports whether the given key has an applied value.
func (s Settings) Known(key Key) bool {
	switch key {
	case KeyChannel:
		return s.Channel != 0
	case KeyInputImpedance:
		return s.InputImpedance != ""
	case KeyInputCoupling:
		return s.InputCoupling != ""
	case KeyRef:
		return s.Ref != ""
	case KeyAttenuation:
		return s.Attenuation != Unset
	case KeyLPF:
		return s.LPF != Unset
	case KeyDisplay:
		return s.Display != Unset
	case KeyGateTime:
		return s.GateTime != 0
	}
	return false
}

// Diff returns the keys whose value in s differs from applied, in canonical
// order. Unknown fields in s are skipped: the source has not expressed a
// wish for them yet.
func (s Settings) Diff(applied Settings) []Key {
	var changed []Key
	for _, key := range Keys {
		if !s.Known(key) {
			continue
		}
		if !equal(s, applied, key) {
			changed = append(changed, key)
		}
	}
	return changed
}

func equal(a, b Settings, key Key) bool {
	switch key {
	case KeyChannel:
		return a.Channel == b.Channel
	case KeyInputImpedance:
		return a.InputImpedance == b.InputImpedance
	case KeyInputCoupling:
		return a.InputCoupling == b.InputCoupling
	case KeyRef:
		return a.Ref == b.Ref
	case KeyAttenuation:
		return a.Attenuation == b.Attenuation
	case KeyLPF:
		return a.LPF == b.LPF
	case KeyDisplay:
		return a.Display == b.Display
	case KeyGateTime:
		return a.GateTime == b.GateTime
	}
	return true
}

// Validate rejects out-of-range values on every known field. Unknown fields
// pass: a partially specified Settings is legitimate.
func (s Settings) Validate() error {
	if s.Known(KeyChannel) && (s.Channel < 1 || s.Channel > 3) {
		return fmt.Errorf("%w: channel %d not in {1,2,3}", ErrInvalidSetting, s.Channel)
	}
	if s.Known(KeyInputImpedance) && s.InputImpedance != "50" && s.InputImpedance != "1E6" {
		return fmt.Errorf("%w: input_impedance %q not in {50,1E6}", ErrInvalidSetting, s.InputImpedance)
	}
	if s.Known(KeyInputCoupling) && s.InputCoupling != "AC" && s.InputCoupling != "DC" {
		return fmt.Errorf("%w: input_coupling %q not in {AC,DC}", ErrInvalidSetting, s.InputCoupling)
	}
	if s.Known(KeyRef) && s.Ref != "INT" && s.Ref != "EXT" {
		return fmt.Errorf("%w: ref %q not in {INT,EXT}", ErrInvalidSetting, s.Ref)
	}
	for _, t := range []struct {
		key Key
		v   int
	}{
		{KeyAttenuation, s.Attenuation},
		{KeyLPF, s.LPF},
		{KeyDisplay, s.Display},
	} {
		if s.Known(t.key) && t.v != 0 && t.v != 1 {
			return fmt.Errorf("%w: %s %d not in {0,1}", ErrInvalidSetting, t.key, t.v)
		}
	}
	if s.Known(KeyGateTime) {
		if err := ValidateGateTime(s.GateTime); err != nil {
			return err
		}
	}
	return nil
}

// ValidateGateTime checks the (1,10000] millisecond window the instrument
// accepts.
func ValidateGateTime(ms int) error {
	if ms <= 1 || ms > 10000 {
		return fmt.Errorf("%w: gatetime %d ms outside (1,10000]", ErrInvalidSetting, ms)
	}
	return nil
}
