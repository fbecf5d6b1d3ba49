package sim

// EnemyAIConfig tunes the enemy's intensity over a session.
type EnemyAIConfig struct {
	BaseSpeed float64 `yaml:"base_speed"`

	// Time curve: intensity ramps linearly from CurveStart to CurveEnd over
	// CurveDuration seconds of game time, then holds.
	UseTimeCurve  bool    `yaml:"use_time_curve"`
	CurveStart    float64 `yaml:"curve_start"`
	CurveEnd      float64 `yaml:"curve_end"`
	CurveDuration float64 `yaml:"curve_duration"`

	// Coverage boost: the enemy speeds up while it is losing.
	UseCoverageBoost     bool    `yaml:"use_coverage_boost"`
	LowCoverageThreshold float64 `yaml:"low_coverage_threshold"`
	LowCoverageBoost     float64 `yaml:"low_coverage_boost"`

	// AdjustByPhase replaces the computed speed with PlayingPhaseSpeed while
	// the game is in play.
	AdjustByPhase     bool    `yaml:"adjust_by_phase"`
	PlayingPhaseSpeed float64 `yaml:"playing_phase_speed"`
}

// DefaultEnemyAIConfig returns a constant-speed enemy.
func DefaultEnemyAIConfig() EnemyAIConfig {
	return EnemyAIConfig{
		BaseSpeed:            0.3,
		CurveStart:           0.3,
		CurveEnd:             0.8,
		CurveDuration:        180,
		LowCoverageThreshold: 0.2,
		LowCoverageBoost:     1.5,
		PlayingPhaseSpeed:    0.3,
	}
}

// EnemyAI is an IntensitySource for the enemy agent.
type EnemyAI struct {
	cfg EnemyAIConfig
}

// NewEnemyAI creates an enemy controller.
func NewEnemyAI(cfg EnemyAIConfig) *EnemyAI {
	return &EnemyAI{cfg: cfg}
}

// Intensity implements IntensitySource. It is zero once the game is decided.
func (ai *EnemyAI) Intensity(st Status) float64 {
	if st.Phase != PhasePlaying {
		return 0
	}
	speed := ai.cfg.BaseSpeed
	if ai.cfg.UseTimeCurve {
		t := 1.0
		if ai.cfg.CurveDuration > 0 {
			t = clamp01(st.GameTime / ai.cfg.CurveDuration)
		}
		speed = lerp(ai.cfg.CurveStart, ai.cfg.CurveEnd, t)
	}
	if ai.cfg.UseCoverageBoost && st.Coverage < ai.cfg.LowCoverageThreshold {
		speed *= ai.cfg.LowCoverageBoost
	}
	if ai.cfg.AdjustByPhase {
		speed = ai.cfg.PlayingPhaseSpeed
	}
	return clamp01(speed)
}
