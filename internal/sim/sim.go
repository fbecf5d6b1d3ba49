package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// MaxPlayers is the number of player slots (ids 2..4).
const MaxPlayers = int(LastPlayerID-FirstPlayerID) + 1

// Config holds every tunable of a session.
type Config struct {
	TicksPerSecond  float64
	MaxCatchUpTicks int // whole ticks fired per Advance call at most; 0 = unlimited

	PlayerCount       int
	PlayerSeeds       []Coord // fallback spawn per player slot
	PlayerSeedAtStart bool
	PlayerRates       GrowthRates
	Player            PlayerKind

	EnemyRates     GrowthRates
	ColumnSpeedMin float64
	ColumnSpeedMax float64
	EnemySeeding   EnemySeeding

	ProtectSeedWave      bool
	KeepFrontierAtBorder bool
	RespawnRadius        int

	Push PushConfig
	Win  WinConfig
}

// DefaultConfig returns the stock three-player session tuning.
func DefaultConfig() Config {
	return Config{
		TicksPerSecond:       20,
		MaxCatchUpTicks:      8,
		PlayerCount:          MaxPlayers,
		PlayerRates:          GrowthRates{Min: 0, Max: 40},
		Player:               DefaultPlayerKind(),
		EnemyRates:           GrowthRates{Min: 0, Max: 40},
		ColumnSpeedMin:       0.1,
		ColumnSpeedMax:       6.0,
		EnemySeeding:         DefaultEnemySeeding(),
		KeepFrontierAtBorder: true,
		RespawnRadius:        DefaultRespawnRadius,
		Push:                 DefaultPushConfig(),
		Win:                  DefaultWinConfig(),
	}
}

// Validate rejects configurations the simulation cannot run.
func (c Config) Validate() error {
	if c.TicksPerSecond <= 0 {
		return fmt.Errorf("ticks_per_second must be positive, got %.2f", c.TicksPerSecond)
	}
	if c.PlayerCount < 0 || c.PlayerCount > MaxPlayers {
		return fmt.Errorf("player_count must be within [0,%d], got %d", MaxPlayers, c.PlayerCount)
	}
	if c.PlayerRates.Min > c.PlayerRates.Max || c.EnemyRates.Min > c.EnemyRates.Max {
		return fmt.Errorf("growth rate min must not exceed max")
	}
	if c.PlayerRates.Min < 0 || c.EnemyRates.Min < 0 {
		return fmt.Errorf("growth rates must be non-negative")
	}
	if c.ColumnSpeedMin < 0 || c.ColumnSpeedMin > c.ColumnSpeedMax {
		return fmt.Errorf("column speed range [%.2f,%.2f] is invalid", c.ColumnSpeedMin, c.ColumnSpeedMax)
	}
	return c.Win.Validate()
}

// TickInterval returns the simulated seconds per tick.
func (c Config) TickInterval() float64 {
	return 1 / c.TicksPerSecond
}

// Status is the read-only session view handed to intensity sources.
type Status struct {
	Tick     int
	GameTime float64
	Coverage float64
	Phase    Phase
}

// IntensitySource produces an agent's intensity for the coming tick.
type IntensitySource interface {
	Intensity(st Status) float64
}

// IntensityFunc adapts a function to IntensitySource.
type IntensityFunc func(st Status) float64

func (f IntensityFunc) Intensity(st Status) float64 { return f(st) }

// Simulation is the tick controller. It owns the grid, the agents and the
// win evaluator and advances them in a fixed order: players by ascending id,
// then the enemy.
type Simulation struct {
	cfg    Config
	grid   *GridMap
	rng    *rand.Rand
	push   *PushResolver
	win    *WinEvaluator
	events *tickEvents

	agents  []*Agent // players first, enemy last
	players []*Agent
	enemy   *Agent
	sources map[uint8]IntensitySource

	sink EventSink
	log  *slog.Logger

	accum    float64
	gameTime float64
	tick     int
	coverage float64
}

// Option customises a Simulation at construction.
type Option func(*options)

type options struct {
	seed       int64
	seeded     bool
	sink       EventSink
	logger     *slog.Logger
	anchor     AnchorSource
	regrowth   RegrowthFunc
	sources    map[uint8]IntensitySource
	enemyCells []Coord
}

// WithSeed makes the session deterministic.
func WithSeed(seed int64) Option {
	return func(o *options) { o.seed, o.seeded = seed, true }
}

// WithEventSink routes per-tick notifications to sink.
func WithEventSink(sink EventSink) Option {
	return func(o *options) { o.sink = sink }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAnchor supplies moving spawn points for players.
func WithAnchor(src AnchorSource) Option {
	return func(o *options) { o.anchor = src }
}

// WithRegrowth installs the enemy regrowth multiplier hook.
func WithRegrowth(fn RegrowthFunc) Option {
	return func(o *options) { o.regrowth = fn }
}

// WithIntensity binds an intensity source to agent id. It is polled at the
// start of every tick.
func WithIntensity(id uint8, src IntensitySource) Option {
	return func(o *options) {
		if o.sources == nil {
			o.sources = make(map[uint8]IntensitySource)
		}
		o.sources[id] = src
	}
}

// WithEnemyCells seeds the enemy at exactly these cells instead of the
// stochastic top band.
func WithEnemyCells(cells ...Coord) Option {
	return func(o *options) { o.enemyCells = append(o.enemyCells, cells...) }
}

// New builds a session on grid. The grid must be freshly built: agents seed
// into it immediately.
func New(cfg Config, grid *GridMap, opts ...Option) (*Simulation, error) {
	if grid == nil {
		return nil, fmt.Errorf("new simulation: %w", ErrNoMask)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.seeded {
		o.seed = time.Now().UnixNano()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	win, err := NewWinEvaluator(cfg.Win)
	if err != nil {
		return nil, fmt.Errorf("new simulation: %w", err)
	}

	rng := rand.New(rand.NewSource(o.seed)) // #nosec G404 -- gameplay randomness
	s := &Simulation{
		cfg:     cfg,
		grid:    grid,
		rng:     rng,
		push:    NewPushResolver(cfg.Push, rng),
		win:     win,
		events:  newTickEvents(),
		sources: o.sources,
		sink:    o.sink,
		log:     o.logger,
	}

	for i := 0; i < cfg.PlayerCount; i++ {
		id := FirstPlayerID + uint8(i) // #nosec G115 -- i < MaxPlayers
		seed := Coord{X: grid.Width * (i + 1) / (cfg.PlayerCount + 1), Y: 0}
		if i < len(cfg.PlayerSeeds) {
			seed = cfg.PlayerSeeds[i]
		}
		a := newAgent(AgentConfig{
			ID:                   id,
			Kind:                 cfg.Player,
			Rates:                cfg.PlayerRates,
			Seed:                 seed,
			SeedAtStart:          cfg.PlayerSeedAtStart,
			ProtectSeedWave:      cfg.ProtectSeedWave,
			KeepFrontierAtBorder: cfg.KeepFrontierAtBorder,
			RespawnRadius:        cfg.RespawnRadius,
		}, grid, s.push, rng, s.events)
		a.anchor = o.anchor
		s.players = append(s.players, a)
	}

	s.enemy = newAgent(AgentConfig{
		ID:                   EnemyID,
		Kind:                 NewEnemyKind(grid.Width, cfg.ColumnSpeedMin, cfg.ColumnSpeedMax, rng),
		Rates:                cfg.EnemyRates,
		SeedCells:            o.enemyCells,
		Seeding:              cfg.EnemySeeding,
		KeepFrontierAtBorder: cfg.KeepFrontierAtBorder,
		RespawnRadius:        cfg.RespawnRadius,
	}, grid, s.push, rng, s.events)
	s.enemy.regrowth = o.regrowth

	s.agents = append(append(s.agents, s.players...), s.enemy)
	for _, a := range s.agents {
		a.Seed()
	}
	s.events.flush(0, s.sink)
	s.coverage = Coverage(grid, EnemyID)

	s.log.Info("session started",
		"grid", fmt.Sprintf("%dx%d", grid.Width, grid.Height),
		"walls", grid.CountOwned(CellWall),
		"players", cfg.PlayerCount,
		"enemy_seed_cells", s.enemy.OwnedCount(),
		"seed", o.seed)
	return s, nil
}

// Grid returns the shared board. Renderers must treat it as read-only.
func (s *Simulation) Grid() *GridMap { return s.grid }

// Agents returns every agent in tick order.
func (s *Simulation) Agents() []*Agent { return s.agents }

// Players returns the player agents in slot order.
func (s *Simulation) Players() []*Agent { return s.players }

// Enemy returns the enemy agent.
func (s *Simulation) Enemy() *Agent { return s.enemy }

// Agent returns the agent with the given id, or nil.
func (s *Simulation) Agent(id uint8) *Agent {
	for _, a := range s.agents {
		if a.id == id {
			return a
		}
	}
	return nil
}

// Push exposes the contest resolver.
func (s *Simulation) Push() *PushResolver { return s.push }

// Coverage returns the enemy coverage computed at the end of the last tick.
func (s *Simulation) Coverage() float64 { return s.coverage }

// Phase returns the current game phase.
func (s *Simulation) Phase() Phase { return s.win.Phase() }

// Tick returns the number of ticks run so far.
func (s *Simulation) Tick() int { return s.tick }

// GameTime returns the simulated seconds elapsed.
func (s *Simulation) GameTime() float64 { return s.gameTime }

// Status returns the read-only view given to intensity sources.
func (s *Simulation) Status() Status {
	return Status{Tick: s.tick, GameTime: s.gameTime, Coverage: s.coverage, Phase: s.win.Phase()}
}

// SetIntensity sets an agent's intensity directly. A bound IntensitySource
// overrides it at the next tick.
func (s *Simulation) SetIntensity(id uint8, v float64) {
	if a := s.Agent(id); a != nil {
		a.SetIntensity(v)
	}
}

// Advance adds dt seconds of elapsed time and fires every whole tick that
// fits, carrying the fractional remainder. It returns the ticks fired.
func (s *Simulation) Advance(dt time.Duration) int {
	if dt <= 0 {
		return 0
	}
	s.accum += dt.Seconds()
	interval := s.cfg.TickInterval()
	fired := 0
	for s.accum >= interval {
		if s.cfg.MaxCatchUpTicks > 0 && fired >= s.cfg.MaxCatchUpTicks {
			s.accum = math.Mod(s.accum, interval)
			break
		}
		s.accum -= interval
		s.Step()
		fired++
	}
	return fired
}

// Step runs exactly one tick. Once the game is decided the board is frozen
// and only the tick counter and game time advance.
func (s *Simulation) Step() {
	s.tick++
	s.gameTime += s.cfg.TickInterval()
	if s.win.Phase() != PhasePlaying {
		return
	}

	st := s.Status()
	for _, a := range s.agents {
		if src, ok := s.sources[a.id]; ok {
			a.SetIntensity(src.Intensity(st))
		}
		a.Tick()
	}

	s.coverage = Coverage(s.grid, EnemyID)
	if s.win.Evaluate(s.coverage, s.gameTime) {
		phase := s.win.Phase()
		s.events.raise(Event{Kind: EventPhaseChanged, Agent: EnemyID, Phase: phase})
		s.log.Info("game decided",
			"phase", phase.String(),
			"tick", s.tick,
			"game_time", fmt.Sprintf("%.2fs", s.gameTime),
			"coverage", fmt.Sprintf("%.3f", s.coverage))
	}
	s.logTickEvents()
	s.events.flush(s.tick, s.sink)
}

func (s *Simulation) logTickEvents() {
	if !s.log.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	for _, e := range s.events.pending {
		switch e.Kind {
		case EventAgentRespawned, EventAnchorUnfreeze:
			s.log.Debug("agent lifecycle", "tick", s.tick, "agent", e.Agent, "event", e.Kind.String(), "at", e.At.String())
		}
	}
}
