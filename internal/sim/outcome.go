package sim

import (
	"errors"
	"fmt"
)

// Phase is the session-wide game state. It moves from Playing to one of the
// terminal values exactly once.
type Phase int

const (
	PhasePlaying Phase = iota
	PhasePlayerWin
	PhaseSlimeWin
)

func (p Phase) String() string {
	switch p {
	case PhasePlaying:
		return "playing"
	case PhasePlayerWin:
		return "player_win"
	case PhaseSlimeWin:
		return "slime_win"
	default:
		return "unknown"
	}
}

// Terminal reports whether the session has been decided.
func (p Phase) Terminal() bool {
	return p == PhasePlayerWin || p == PhaseSlimeWin
}

// ErrThresholdOverlap is returned when the win thresholds leave no playing band.
var ErrThresholdOverlap = errors.New("player win threshold must be below slime win threshold")

// WinConfig gates and thresholds the coverage evaluation.
type WinConfig struct {
	MinDelay           float64 `yaml:"min_delay"`            // seconds of game time before evaluation starts
	Epsilon            float64 `yaml:"epsilon"`              // coverage below this is treated as noise
	SlimeWinThreshold  float64 `yaml:"slime_win_threshold"`  // coverage at or above: enemy wins
	PlayerWinThreshold float64 `yaml:"player_win_threshold"` // coverage at or below: players win
}

// DefaultWinConfig returns the stock thresholds.
func DefaultWinConfig() WinConfig {
	return WinConfig{
		MinDelay:           10,
		Epsilon:            0.01,
		SlimeWinThreshold:  0.95,
		PlayerWinThreshold: 0.05,
	}
}

// Validate checks the thresholds are ordered and inside [0,1].
func (wc WinConfig) Validate() error {
	if wc.PlayerWinThreshold >= wc.SlimeWinThreshold {
		return fmt.Errorf("player=%.3f slime=%.3f: %w", wc.PlayerWinThreshold, wc.SlimeWinThreshold, ErrThresholdOverlap)
	}
	for _, v := range []float64{wc.Epsilon, wc.SlimeWinThreshold, wc.PlayerWinThreshold} {
		if v < 0 || v > 1 {
			return fmt.Errorf("win thresholds must be within [0,1], got %.3f", v)
		}
	}
	if wc.MinDelay < 0 {
		return fmt.Errorf("min_delay must be non-negative, got %.3f", wc.MinDelay)
	}
	return nil
}

// Coverage returns the fraction of non-wall cells held by enemyID.
func Coverage(g *GridMap, enemyID uint8) float64 {
	total := g.NonWallCount()
	if total <= 0 {
		return 0
	}
	return float64(g.CountOwned(enemyID)) / float64(total)
}

// WinEvaluator drives the Playing -> {PlayerWin, SlimeWin} transition.
type WinEvaluator struct {
	cfg       WinConfig
	phase     Phase
	decidedAt float64
}

// NewWinEvaluator returns an evaluator in PhasePlaying.
func NewWinEvaluator(cfg WinConfig) (*WinEvaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &WinEvaluator{cfg: cfg, phase: PhasePlaying}, nil
}

// Phase returns the current phase.
func (we *WinEvaluator) Phase() Phase {
	return we.phase
}

// DecidedAt returns the game time of the terminal transition, or 0 while playing.
func (we *WinEvaluator) DecidedAt() float64 {
	return we.decidedAt
}

// Evaluate applies the thresholds to coverage and returns true if this call
// ended the game. Calls after the transition, before MinDelay has elapsed, or
// with coverage under Epsilon change nothing.
func (we *WinEvaluator) Evaluate(coverage, gameTime float64) bool {
	if we.phase != PhasePlaying {
		return false
	}
	if gameTime < we.cfg.MinDelay {
		return false
	}
	if coverage < we.cfg.Epsilon {
		return false
	}
	switch {
	case coverage >= we.cfg.SlimeWinThreshold:
		we.phase = PhaseSlimeWin
	case coverage <= we.cfg.PlayerWinThreshold:
		we.phase = PhasePlayerWin
	default:
		return false
	}
	we.decidedAt = gameTime
	return true
}
