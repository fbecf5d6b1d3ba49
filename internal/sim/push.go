package sim

import "math/rand"

// PushConfig holds the contest odds between agent pairs.
type PushConfig struct {
	EnemyVsPlayer  float64 `yaml:"enemy_vs_player"`  // fixed chance for the enemy
	PlayerVsEnemy  float64 `yaml:"player_vs_enemy"`  // base chance, plus intensity bonus
	PlayerVsPlayer float64 `yaml:"player_vs_player"` // base chance, plus intensity bonus
	IntensityBonus float64 `yaml:"intensity_bonus"`  // scaled by the attacker's intensity

	// GuaranteeAfterFails grants an automatic win once a coordinate has
	// failed this many times in a row. 0 disables the guarantee.
	GuaranteeAfterFails int `yaml:"guarantee_after_fails"`
}

// DefaultPushConfig returns the stock contest odds.
func DefaultPushConfig() PushConfig {
	return PushConfig{
		EnemyVsPlayer:       0.3,
		PlayerVsEnemy:       0.4,
		PlayerVsPlayer:      0.2,
		IntensityBonus:      0.3,
		GuaranteeAfterFails: 5,
	}
}

// PushResolver adjudicates attempts to overwrite another agent's cell.
// Fail counters are keyed by coordinate only, so they persist across ticks
// and across whichever agents contest the same cell.
type PushResolver struct {
	cfg   PushConfig
	rng   *rand.Rand
	fails map[Coord]int
}

// NewPushResolver creates a resolver drawing from rng.
func NewPushResolver(cfg PushConfig, rng *rand.Rand) *PushResolver {
	return &PushResolver{
		cfg:   cfg,
		rng:   rng,
		fails: make(map[Coord]int),
	}
}

// Chance returns the success probability for attacker taking a cell from defender.
func (pr *PushResolver) Chance(attacker, defender uint8, intensity float64) float64 {
	switch {
	case IsEnemyID(attacker):
		return pr.cfg.EnemyVsPlayer
	case IsEnemyID(defender):
		return pr.cfg.PlayerVsEnemy + intensity*pr.cfg.IntensityBonus
	default:
		return pr.cfg.PlayerVsPlayer + intensity*pr.cfg.IntensityBonus
	}
}

// TryPush rolls a contest at c and reports whether the attacker wins it.
func (pr *PushResolver) TryPush(c Coord, attacker, defender uint8, intensity float64) bool {
	guarded := pr.cfg.GuaranteeAfterFails > 0
	if guarded && pr.fails[c] >= pr.cfg.GuaranteeAfterFails {
		delete(pr.fails, c)
		return true
	}

	success := pr.rng.Float64() < pr.Chance(attacker, defender, intensity)
	switch {
	case success:
		delete(pr.fails, c)
	case guarded:
		pr.fails[c]++
	}
	return success
}

// FailCount returns the consecutive failures recorded at c.
func (pr *PushResolver) FailCount(c Coord) int {
	return pr.fails[c]
}
