package sim

import "fmt"

// InputMode selects which physical inputs drive a player.
type InputMode int

const (
	InputKeyboard InputMode = iota
	InputPedal
	InputBoth // the higher of keyboard and pedal wins
)

func (m InputMode) String() string {
	switch m {
	case InputKeyboard:
		return "keyboard"
	case InputPedal:
		return "pedal"
	case InputBoth:
		return "both"
	default:
		return "unknown"
	}
}

// ParseInputMode maps a config string to an InputMode.
func ParseInputMode(s string) (InputMode, error) {
	switch s {
	case "", "keyboard":
		return InputKeyboard, nil
	case "pedal", "osc":
		return InputPedal, nil
	case "both":
		return InputBoth, nil
	default:
		return InputKeyboard, fmt.Errorf("unknown input mode %q (valid: keyboard, pedal, both)", s)
	}
}

// KeyState is the discrete keyboard level for one player.
type KeyState int

const (
	KeyStop KeyState = iota
	KeySlow
	KeyFast
)

// InputConfig maps raw input to intensity.
type InputConfig struct {
	Mode      InputMode `yaml:"-"`
	SlowSpeed float64   `yaml:"slow_speed"`
	FastSpeed float64   `yaml:"fast_speed"`

	// Pedal values at or below StopThreshold mean stop (retreat); values at
	// or above FastThreshold mean fast.
	StopThreshold float64 `yaml:"stop_threshold"`
	FastThreshold float64 `yaml:"fast_threshold"`
}

// DefaultInputConfig returns the stock keyboard mapping.
func DefaultInputConfig() InputConfig {
	return InputConfig{
		Mode:          InputKeyboard,
		SlowSpeed:     0.5,
		FastSpeed:     1.0,
		StopThreshold: 0.25,
		FastThreshold: 0.75,
	}
}

// PlayerInput turns the latest keyboard and pedal readings of one player into
// an intensity. It implements IntensitySource.
type PlayerInput struct {
	cfg   InputConfig
	key   KeyState
	pedal float64
}

// NewPlayerInput creates an input mapper with no input held.
func NewPlayerInput(cfg InputConfig) *PlayerInput {
	return &PlayerInput{cfg: cfg}
}

// SetKey records the current keyboard level.
func (pi *PlayerInput) SetKey(k KeyState) { pi.key = k }

// SetPedal records the latest pedal reading, clamped to [0,1].
func (pi *PlayerInput) SetPedal(v float64) { pi.pedal = clamp01(v) }

func (pi *PlayerInput) keyIntensity() float64 {
	switch pi.key {
	case KeySlow:
		return pi.cfg.SlowSpeed
	case KeyFast:
		return pi.cfg.FastSpeed
	default:
		return 0
	}
}

func (pi *PlayerInput) pedalIntensity() float64 {
	switch {
	case pi.pedal <= pi.cfg.StopThreshold:
		return 0
	case pi.pedal < pi.cfg.FastThreshold:
		return pi.cfg.SlowSpeed
	default:
		return pi.cfg.FastSpeed
	}
}

// Intensity implements IntensitySource.
func (pi *PlayerInput) Intensity(Status) float64 {
	switch pi.cfg.Mode {
	case InputPedal:
		return pi.pedalIntensity()
	case InputBoth:
		return max(pi.keyIntensity(), pi.pedalIntensity())
	default:
		return pi.keyIntensity()
	}
}
