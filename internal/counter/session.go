// Package counter holds the instrument session for an Agilent 53131A/132A
// class frequency counter: the single source of truth for applied settings
// and the translation of setting changes into SCPI command strings.
package counter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/domain"
	"github.com/UCBoulder/clam-chowder-frequency-counter/internal/ports"
)

// ErrNoInputSignal reports that the seed measurement during channel
// initialization timed out. A missing signal during setup is an expected,
// non-fatal condition; the transport error state has already been cleared
// when this is returned, so subsequent commands can proceed.
var ErrNoInputSignal = errors.New("counter: no input signal during channel initialization")

// The instrument answers ~9.91e37 to the external reference frequency query
// when it has no lock; anything below this threshold means locked.
const externalLockThreshold = 1e16

// Session owns the applied instrument settings and the transport. It is not
// internally synchronized: all operations run on the foreground context,
// except TakeMeasurement which the acquisition loop calls, and
// GateTimeMillis which is backed by an atomic mirror.
type Session struct {
	tr  ports.Transport
	obs ports.Observability

	applied    domain.Settings
	gateMillis atomic.Int64
}

// NewSession wraps a transport. Settings start all-unknown.
func NewSession(tr ports.Transport, obs ports.Observability) *Session {
	return &Session{tr: tr, obs: obs, applied: domain.UnknownSettings()}
}

// Applied returns the currently applied settings.
func (s *Session) Applied() domain.Settings { return s.applied }

// GateTimeMillis returns the applied gate time in milliseconds, 0 if
// unknown. Safe to call from the acquisition loop.
func (s *Session) GateTimeMillis() int { return int(s.gateMillis.Load()) }

// Reset returns the applied settings to all-unknown, the state after a
// disconnect or instrument-list refresh.
func (s *Session) Reset() {
	s.applied = domain.UnknownSettings()
	s.gateMillis.Store(0)
}

// Identify queries the instrument identification string.
func (s *Session) Identify() (string, error) {
	idn, err := s.tr.Query("*IDN?")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(idn), nil
}

// ApplySetting stores the value for one key from desired, composes the
// command for that key, and sends it. Out-of-range values are rejected
// before any command is sent.
func (s *Session) ApplySetting(key domain.Key, desired domain.Settings) error {
	return s.ApplySettings(desired, []domain.Key{key})
}

// ApplySettings applies the listed keys in order. All changed fields are
// stored before the first command is composed, so a combined channel command
// picks up values applied in the same batch. There is no atomicity across
// keys: if the transport fails partway, earlier commands have already taken
// effect and nothing is retried. An ErrNoInputSignal from channel
// initialization does not stop the remaining keys; it is returned after they
// have been applied.
func (s *Session) ApplySettings(desired domain.Settings, keys []domain.Key) error {
	if len(keys) == 0 {
		return nil
	}
	next := s.applied
	for _, key := range keys {
		storeField(&next, key, desired)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	s.applied = next
	s.gateMillis.Store(int64(next.GateTime))

	var setupErr error
	for _, key := range keys {
		if err := s.sendFor(key); err != nil {
			if errors.Is(err, ErrNoInputSignal) {
				setupErr = err
				continue
			}
			return err
		}
	}
	return setupErr
}

func storeField(dst *domain.Settings, key domain.Key, src domain.Settings) {
	switch key {
	case domain.KeyChannel:
		dst.Channel = src.Channel
	case domain.KeyInputImpedance:
		dst.InputImpedance = src.InputImpedance
	case domain.KeyInputCoupling:
		dst.InputCoupling = src.InputCoupling
	case domain.KeyRef:
		dst.Ref = src.Ref
	case domain.KeyAttenuation:
		dst.Attenuation = src.Attenuation
	case domain.KeyLPF:
		dst.LPF = src.LPF
	case domain.KeyDisplay:
		dst.Display = src.Display
	case domain.KeyGateTime:
		dst.GateTime = src.GateTime
	}
}

func (s *Session) sendFor(key domain.Key) error {
	switch key {
	case domain.KeyChannel:
		// Impedance, coupling, attenuation, LPF and gate time are
		// channel-scoped on the instrument and must be re-asserted after the
		// reset-and-arm sequence.
		initErr := s.ChannelInitialize(s.applied.Channel)
		if initErr != nil && !errors.Is(initErr, ErrNoInputSignal) {
			return initErr
		}
		if cmd := s.channelCommand(); cmd != "" {
			if err := s.writeCommand(cmd); err != nil {
				return err
			}
		}
		return initErr
	case domain.KeyGateTime:
		// Guard against a measurement cycle longer than the configured wait.
		timeout := 10 * time.Duration(s.applied.GateTime) * time.Millisecond
		s.obs.LogInfo("set_read_timeout", ports.Field{Key: "timeout_ms", Value: timeout.Milliseconds()})
		s.tr.SetTimeout(timeout)
		return s.writeCommand(s.composeCommand(key))
	default:
		return s.writeCommand(s.composeCommand(key))
	}
}

func (s *Session) composeCommand(key domain.Key) string {
	ch := s.applied.Channel
	switch key {
	case domain.KeyInputImpedance:
		return fmt.Sprintf(":input%d:impedance %s", ch, s.applied.InputImpedance)
	case domain.KeyInputCoupling:
		return fmt.Sprintf(":input%d:coupling %s", ch, s.applied.InputCoupling)
	case domain.KeyRef:
		cmd := ":sense:roscillator:source " + s.applied.Ref
		if s.applied.Ref == "EXT" {
			cmd += ";:sense:roscillator:external:check once"
		}
		return cmd
	case domain.KeyAttenuation:
		return fmt.Sprintf(":input%d:attenuation %d", ch, attenuationValue(s.applied.Attenuation))
	case domain.KeyLPF:
		return fmt.Sprintf(":input%d:filter:lowpass:state %d", ch, s.applied.LPF)
	case domain.KeyDisplay:
		return fmt.Sprintf(":display:enable %d", s.applied.Display)
	case domain.KeyGateTime:
		return ":sense:frequency:arm:stop:timer " + gateSeconds(s.applied.GateTime)
	}
	return ""
}

// channelCommand is the combined command sent after channel initialization,
// re-asserting the channel-scoped settings plus the gate time. Settings still
// at their unknown sentinel are left out: the instrument keeps its own state
// for them until a value is applied.
func (s *Session) channelCommand() string {
	var parts []string
	for _, key := range []domain.Key{
		domain.KeyInputImpedance,
		domain.KeyInputCoupling,
		domain.KeyAttenuation,
		domain.KeyLPF,
		domain.KeyGateTime,
	} {
		if s.applied.Known(key) {
			parts = append(parts, s.composeCommand(key))
		}
	}
	return strings.Join(parts, ";")
}

// The instrument maps attenuation on/off to a 10x/1x divider. The unknown
// sentinel counts as off.
func attenuationValue(v int) int {
	if v > 0 {
		return 10
	}
	return 1
}

// The stored gate time is milliseconds; the arm timer command expects
// seconds.
func gateSeconds(ms int) string {
	return strconv.FormatFloat(float64(ms)/1000, 'g', -1, 64)
}

// ChannelInitialize runs the reset-and-arm sequence from the 53131A/132A
// programming guide: clear status, measure frequency on the channel with
// time arming and a 1 s default gate, take one blocking read to seed the
// expected-frequency estimate (within 10% speeds up acquisition), disable
// auto-calibration, and arm the *DDT macro so a bus trigger issues READ?.
//
// A transport failure while seeding is the one swallowed error in this
// package: it is logged, the transport error state is cleared, and
// ErrNoInputSignal is returned so callers can continue.
func (s *Session) ChannelInitialize(channel int) error {
	s.obs.LogInfo("initializing_channel", ports.Field{Key: "channel", Value: channel})

	if err := s.writeCommand("*CLS;*RST;*SRE 0;*ESE 0;:STAT:PRES"); err != nil {
		return err
	}

	if err := s.seedExpectedFrequency(channel); err != nil {
		s.obs.LogError("no_input_signal", err, ports.Field{Key: "channel", Value: channel})
		if cerr := s.tr.Clear(); cerr != nil {
			return cerr
		}
		return fmt.Errorf("%w (seed measurement: %v)", ErrNoInputSignal, err)
	}
	return nil
}

func (s *Session) seedExpectedFrequency(channel int) error {
	cmd := fmt.Sprintf(":FUNC 'FREQ %d';"+
		":SENS:FREQ:ARM:STAR:SOUR IMM;"+
		":SENS:FREQ:ARM:STOP:SOUR TIM;"+
		":SENS:FREQ:ARM:STOP:TIM 1", channel)
	if err := s.writeCommand(cmd); err != nil {
		return err
	}

	s.tr.SetTimeout(3 * time.Second)
	freqNow, err := s.tr.Query(":READ?")
	if err != nil {
		return err
	}

	if err := s.writeCommand(fmt.Sprintf(":FREQ:EXP%d %s", channel, strings.TrimSpace(freqNow))); err != nil {
		return err
	}
	if err := s.writeCommand(fmt.Sprintf(":DIAG:CAL:INT:AUTO OFF;:SENS:EVEN%d:LEVEL:ABS 0", channel)); err != nil {
		return err
	}
	return s.writeCommand("*ESE 1;*SRE 32;*DDT #15READ?")
}

// IsExternallyReferenced reports whether the counter is locked to the
// external timebase. Only meaningful when ref is EXT; returns false
// unconditionally otherwise, regardless of what the instrument would say.
func (s *Session) IsExternallyReferenced() (bool, error) {
	if s.applied.Ref != "EXT" {
		return false, nil
	}
	resp, err := s.tr.Query(":SENS:ROSC:EXT:FREQ?")
	if err != nil {
		return false, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if err != nil {
		return false, fmt.Errorf("parse external reference frequency %q: %w", strings.TrimSpace(resp), err)
	}
	return f < externalLockThreshold, nil
}

// TakeMeasurement asserts a bus trigger and blocks on the read the *DDT
// macro produces. A response that fails to parse as a number yields
// ok=false ("no reading") rather than an error; transport failures
// propagate.
func (s *Session) TakeMeasurement() (hz float64, ok bool, err error) {
	if err := s.tr.AssertTrigger(); err != nil {
		return 0, false, err
	}
	resp, err := s.tr.Read()
	if err != nil {
		return 0, false, err
	}
	f, perr := strconv.ParseFloat(strings.TrimSpace(resp), 64)
	if perr != nil {
		return 0, false, nil
	}
	return f, true, nil
}

// ResumeContinuous returns the instrument to free-running measurement, the
// sane state to leave it in after trigger-driven acquisition.
func (s *Session) ResumeContinuous() error {
	return s.writeCommand(":INIT:CONT ON")
}

func (s *Session) writeCommand(command string) error {
	s.obs.LogInfo("send_command", ports.Field{Key: "command", Value: command})
	s.obs.IncCounter("chowder_commands_sent_total", 1)
	return s.tr.Write(command)
}
