// Package session assembles playable sessions from a loaded config: grid,
// simulation, per-player input, spawn trays and the enemy controller.
// Every frontend builds its sessions here.
package session

import (
	"fmt"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"github.com/Garsondee/Slime-Siege/internal/config"
	"github.com/Garsondee/Slime-Siege/internal/sim"
)

// Session is one running game plus the controllers feeding it.
type Session struct {
	*sim.Simulation
	Inputs  []*sim.PlayerInput // index 0 drives FirstPlayerID
	Trays   *sim.Trays
	EnemyAI *sim.EnemyAI
	Seed    int64

	interval time.Duration
}

// Advance moves the spawn trays and then the simulation by dt.
func (s *Session) Advance(dt time.Duration) int {
	s.Trays.Update(dt)
	return s.Simulation.Advance(dt)
}

// Step runs exactly one tick, moving the trays by one tick interval first.
// Headless runs use it instead of Advance.
func (s *Session) Step() {
	s.Trays.Update(s.interval)
	s.Simulation.Step()
}

// Input returns the input for player slot i (0-based), or nil.
func (s *Session) Input(i int) *sim.PlayerInput {
	if i < 0 || i >= len(s.Inputs) {
		return nil
	}
	return s.Inputs[i]
}

// Builder creates sessions that share one config and mask. The mask is
// decoded once; every Build resamples it into a fresh grid.
type Builder struct {
	cfg    *config.Config
	mask   image.Image
	log    *slog.Logger
	sinks  []sim.EventSink
	builds int
}

// NewBuilder loads the configured mask (if any) and returns a builder.
// Extra sinks receive every event of every session built.
func NewBuilder(cfg *config.Config, logger *slog.Logger, sinks ...sim.EventSink) (*Builder, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	b := &Builder{cfg: cfg, log: logger, sinks: sinks}
	if cfg.Grid.Mask != "" {
		m, err := sim.LoadMask(cfg.Grid.Mask)
		if err != nil {
			return nil, err
		}
		b.mask = m
		logger.Info("mask loaded", "path", cfg.Grid.Mask, "bounds", m.Bounds().String())
	}
	return b, nil
}

// Config returns the builder's config.
func (b *Builder) Config() *config.Config { return b.cfg }

// Grid builds a fresh board: the resampled mask, or an open grid when no
// mask is configured.
func (b *Builder) Grid() (*sim.GridMap, error) {
	if b.mask == nil {
		return sim.NewGridMap(b.cfg.Grid.Width, b.cfg.Grid.Height)
	}
	return sim.BuildGridMap(b.mask, b.cfg.Grid.Width, b.cfg.Grid.Height, b.cfg.Grid.Thresholds)
}

// NextSeed returns the seed for the next Build. A configured seed is
// offset by the build count so restarts differ but stay reproducible.
func (b *Builder) NextSeed() int64 {
	if b.cfg.Sim.Seed == 0 {
		return time.Now().UnixNano()
	}
	return b.cfg.Sim.Seed + int64(b.builds)
}

// Build creates a new session seeded with seed.
func (b *Builder) Build(seed int64) (*Session, error) {
	grid, err := b.Grid()
	if err != nil {
		return nil, fmt.Errorf("build session: %w", err)
	}
	b.builds++

	rng := rand.New(rand.NewSource(seed ^ 0x5eed)) // #nosec G404 -- tray phases only
	s := &Session{
		Trays:   sim.NewTrays(b.cfg.TrayConfigs(), rng),
		EnemyAI: sim.NewEnemyAI(b.cfg.Enemy.AI),
		Seed:    seed,

		interval: time.Duration(float64(time.Second) / b.cfg.Sim.TicksPerSecond),
	}

	sinks := append(sim.MultiSink{s.Trays}, b.sinks...)
	opts := []sim.Option{
		sim.WithSeed(seed),
		sim.WithLogger(b.log),
		sim.WithAnchor(s.Trays),
		sim.WithEventSink(sinks),
		sim.WithIntensity(sim.EnemyID, s.EnemyAI),
	}
	ic := b.cfg.PlayerInputConfig()
	for i := 0; i < b.cfg.Players.Count; i++ {
		in := sim.NewPlayerInput(ic)
		s.Inputs = append(s.Inputs, in)
		opts = append(opts, sim.WithIntensity(sim.FirstPlayerID+uint8(i), in)) // #nosec G115 -- bounded by MaxPlayers
	}

	s.Simulation, err = sim.New(b.cfg.SimConfig(), grid, opts...)
	if err != nil {
		return nil, fmt.Errorf("build session: %w", err)
	}
	return s, nil
}

// KeyBinding maps the number-row keys to a player slot and key level:
// 1/2/3 are stop/slow/fast for the first player, 4/5/6 for the second and
// 7/8/9 for the third.
func KeyBinding(r rune) (slot int, level sim.KeyState, ok bool) {
	if r < '1' || r > '9' {
		return 0, sim.KeyStop, false
	}
	n := int(r - '1')
	return n / 3, sim.KeyState(n % 3), true
}
