// Package config provides configuration loading for slime sessions.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/Garsondee/Slime-Siege/internal/sim"
	"gopkg.in/yaml.v3"
)

// Config contains every setting of a session and its frontends.
type Config struct {
	// Grid describes the board and the mask it is built from.
	Grid GridConfig `yaml:"grid"`

	// Sim contains tick pacing and session-wide policies.
	Sim SimConfig `yaml:"sim"`

	// Players configures the player agents.
	Players PlayersConfig `yaml:"players"`

	// Enemy configures the enemy agent and its AI controller.
	Enemy EnemyConfig `yaml:"enemy"`

	Push sim.PushConfig `yaml:"push"`
	Win  sim.WinConfig  `yaml:"win"`

	// Input maps keyboard and pedal readings to intensity.
	Input InputConfig `yaml:"input"`

	// Trays are the moving spawn anchors, one per player. Empty means
	// evenly spaced along the bottom row.
	Trays []sim.TrayConfig `yaml:"trays"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `yaml:"logging"`
}

// GridConfig describes board dimensions and wall classification.
type GridConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Mask   string `yaml:"mask"` // path to the obstacle mask; empty means no walls

	Thresholds sim.MaskThresholds `yaml:"thresholds"`
}

// SimConfig contains tick pacing and session-wide policies.
type SimConfig struct {
	TicksPerSecond       float64 `yaml:"ticks_per_second"`
	MaxCatchUpTicks      int     `yaml:"max_catch_up_ticks"`
	Seed                 int64   `yaml:"seed"` // 0 means time-seeded
	KeepFrontierAtBorder bool    `yaml:"keep_frontier_at_border"`
	RespawnRadius        int     `yaml:"respawn_radius"`

	// RestartDelay is how long frontends show a decided game before
	// starting a new session, in seconds.
	RestartDelay float64 `yaml:"restart_delay"`
}

// PlayersConfig configures the player agents.
type PlayersConfig struct {
	Count           int             `yaml:"count"`
	Seeds           []sim.Coord     `yaml:"seeds"`
	SeedAtStart     bool            `yaml:"seed_at_start"`
	Rates           sim.GrowthRates `yaml:"rates"`
	VerticalBias    float64         `yaml:"vertical_bias"`
	DownChance      float64         `yaml:"down_chance"`
	ProtectSeedWave bool            `yaml:"protect_seed_wave"`
}

// EnemyConfig configures the enemy agent.
type EnemyConfig struct {
	Rates          sim.GrowthRates   `yaml:"rates"`
	ColumnSpeedMin float64           `yaml:"column_speed_min"`
	ColumnSpeedMax float64           `yaml:"column_speed_max"`
	Seeding        sim.EnemySeeding  `yaml:"seeding"`
	AI             sim.EnemyAIConfig `yaml:"ai"`
}

// InputConfig selects the input mode and speed mapping.
type InputConfig struct {
	// Mode is "keyboard" (default), "pedal" or "both".
	Mode            string `yaml:"mode"`
	sim.InputConfig `yaml:",inline"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `json:"level" yaml:"level"`
}

// Default returns a Config with the stock tuning.
func Default() *Config {
	sc := sim.DefaultConfig()
	return &Config{
		Grid: GridConfig{
			Width:      400,
			Height:     112,
			Thresholds: sim.DefaultMaskThresholds(),
		},
		Sim: SimConfig{
			TicksPerSecond:       sc.TicksPerSecond,
			MaxCatchUpTicks:      sc.MaxCatchUpTicks,
			KeepFrontierAtBorder: sc.KeepFrontierAtBorder,
			RespawnRadius:        sc.RespawnRadius,
			RestartDelay:         8,
		},
		Players: PlayersConfig{
			Count:           sc.PlayerCount,
			Rates:           sc.PlayerRates,
			VerticalBias:    sc.Player.VerticalBias,
			DownChance:      sc.Player.DownChance,
			ProtectSeedWave: sc.ProtectSeedWave,
		},
		Enemy: EnemyConfig{
			Rates:          sc.EnemyRates,
			ColumnSpeedMin: sc.ColumnSpeedMin,
			ColumnSpeedMax: sc.ColumnSpeedMax,
			Seeding:        sc.EnemySeeding,
			AI:             sim.DefaultEnemyAIConfig(),
		},
		Push: sc.Push,
		Win:  sc.Win,
		Input: InputConfig{
			Mode:        "keyboard",
			InputConfig: sim.DefaultInputConfig(),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load builds a config from defaults, then path (if non-empty), then
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fileConfig, err := LoadFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
		cfg = fileConfig
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific YAML file. Keys missing
// from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Grid.Width <= 0 || c.Grid.Height <= 0 {
		return fmt.Errorf("grid size must be positive, got %dx%d", c.Grid.Width, c.Grid.Height)
	}
	if _, err := sim.ParseInputMode(c.Input.Mode); err != nil {
		return err
	}
	if c.Input.StopThreshold > c.Input.FastThreshold {
		return fmt.Errorf("input stop_threshold %.2f exceeds fast_threshold %.2f", c.Input.StopThreshold, c.Input.FastThreshold)
	}
	if len(c.Trays) > 0 && len(c.Trays) != c.Players.Count {
		return fmt.Errorf("trays: got %d entries for %d players", len(c.Trays), c.Players.Count)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	if err := c.SimConfig().Validate(); err != nil {
		return fmt.Errorf("sim: %w", err)
	}
	return nil
}

// SimConfig converts the file layout into the simulation's config.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		TicksPerSecond:    c.Sim.TicksPerSecond,
		MaxCatchUpTicks:   c.Sim.MaxCatchUpTicks,
		PlayerCount:       c.Players.Count,
		PlayerSeeds:       c.Players.Seeds,
		PlayerSeedAtStart: c.Players.SeedAtStart,
		PlayerRates:       c.Players.Rates,
		Player: sim.PlayerKind{
			VerticalBias: c.Players.VerticalBias,
			DownChance:   c.Players.DownChance,
		},
		EnemyRates:           c.Enemy.Rates,
		ColumnSpeedMin:       c.Enemy.ColumnSpeedMin,
		ColumnSpeedMax:       c.Enemy.ColumnSpeedMax,
		EnemySeeding:         c.Enemy.Seeding,
		ProtectSeedWave:      c.Players.ProtectSeedWave,
		KeepFrontierAtBorder: c.Sim.KeepFrontierAtBorder,
		RespawnRadius:        c.Sim.RespawnRadius,
		Push:                 c.Push,
		Win:                  c.Win,
	}
}

// PlayerInputConfig returns the input mapping with the parsed mode.
func (c *Config) PlayerInputConfig() sim.InputConfig {
	ic := c.Input.InputConfig
	ic.Mode, _ = sim.ParseInputMode(c.Input.Mode) // checked by Validate
	return ic
}

// TrayConfigs returns the configured anchors, or an even spread.
func (c *Config) TrayConfigs() []sim.TrayConfig {
	if len(c.Trays) > 0 {
		return c.Trays
	}
	return sim.DefaultTrayConfigs(c.Grid.Width, c.Players.Count)
}

// applyEnvOverrides applies environment variable overrides to the config.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SLIME_MASK"); v != "" {
		cfg.Grid.Mask = v
	}
	if v := os.Getenv("SLIME_TICKS_PER_SECOND"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Sim.TicksPerSecond = f
		}
	}
	if v := os.Getenv("SLIME_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Sim.Seed = n
		}
	}
	if v := os.Getenv("SLIME_PLAYERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Players.Count = n
		}
	}
	if v := os.Getenv("SLIME_INPUT_MODE"); v != "" {
		cfg.Input.Mode = v
	}
	if v := os.Getenv("SLIME_PROTECT_SEED_WAVE"); v != "" {
		cfg.Players.ProtectSeedWave = v == "true" || v == "1"
	}
	if v := os.Getenv("SLIME_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
