package sim

import (
	"math"
	"math/rand"
)

// AgentState is the per-agent lifecycle state.
type AgentState int

const (
	AgentSeeding AgentState = iota
	AgentGrowing
	AgentShrinking
	AgentDead
	AgentRespawning
)

func (s AgentState) String() string {
	switch s {
	case AgentSeeding:
		return "seeding"
	case AgentGrowing:
		return "growing"
	case AgentShrinking:
		return "shrinking"
	case AgentDead:
		return "dead"
	case AgentRespawning:
		return "respawning"
	default:
		return "unknown"
	}
}

// GrowthRates bounds the cells attempted per tick at intensity 0 and 1.
type GrowthRates struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Budget returns ceil(lerp(Min, Max, strength)).
func (gr GrowthRates) Budget(strength float64) int {
	return int(math.Ceil(lerp(float64(gr.Min), float64(gr.Max), clamp01(strength))))
}

// EnemySeeding shapes the sparse band the enemy starts from.
type EnemySeeding struct {
	FillProbability float64 `yaml:"fill_probability"`  // chance a column is seeded at all
	MaxOffset       int     `yaml:"max_offset"`        // random drop below the top free cell, inclusive
	SecondRowChance float64 `yaml:"second_row_chance"` // chance of a second cell underneath
}

// DefaultEnemySeeding returns the stock holey top band.
func DefaultEnemySeeding() EnemySeeding {
	return EnemySeeding{FillProbability: 0.1, MaxOffset: 3, SecondRowChance: 0.3}
}

// AgentConfig describes one competitor.
type AgentConfig struct {
	ID    uint8
	Kind  AgentKind
	Rates GrowthRates

	// Seed is the fallback spawn point for players.
	Seed Coord
	// SeedAtStart claims Seed at construction. When false a player stays
	// empty until its first positive-intensity tick.
	SeedAtStart bool
	// SeedCells, when set, replaces stochastic enemy seeding.
	SeedCells []Coord
	Seeding   EnemySeeding

	// ProtectSeedWave keeps the oldest wave from ever being shrunk.
	ProtectSeedWave bool
	// KeepFrontierAtBorder is carried for config compatibility. Cells that
	// touch another agent are never pruned as blocked, whatever its value.
	KeepFrontierAtBorder bool
	RespawnRadius        int
}

// RegrowthFunc returns a budget multiplier for the enemy at a frontier cell.
type RegrowthFunc func(x, y int) float64

// AnchorSource supplies a moving preferred spawn point per player.
type AnchorSource interface {
	Anchor(id uint8) (Coord, bool)
}

// Agent is one territory competitor. All methods mutate the shared grid and
// must only be called from the tick loop.
type Agent struct {
	id   uint8
	kind AgentKind
	cfg  AgentConfig

	grid   *GridMap
	push   *PushResolver
	rng    *rand.Rand
	events *tickEvents

	anchor   AnchorSource
	regrowth RegrowthFunc

	frontier  []Coord
	history   [][]Coord
	intensity float64
	state     AgentState

	anchorFrozen bool
	nbuf         []Coord

	// mark stamps cells visited during one thicken pass. A cell lost and
	// reclaimed sits in more than one wave.
	mark    []uint32
	markGen uint32
}

func newAgent(cfg AgentConfig, grid *GridMap, push *PushResolver, rng *rand.Rand, events *tickEvents) *Agent {
	if cfg.RespawnRadius <= 0 {
		cfg.RespawnRadius = DefaultRespawnRadius
	}
	return &Agent{
		id:     cfg.ID,
		kind:   cfg.Kind,
		cfg:    cfg,
		grid:   grid,
		push:   push,
		rng:    rng,
		events: events,
		state:  AgentSeeding,
		nbuf:   make([]Coord, 0, 4),
	}
}

// ID returns the owner value this agent writes into the grid.
func (a *Agent) ID() uint8 { return a.id }

// IsEnemy reports whether this agent uses the enemy strategy.
func (a *Agent) IsEnemy() bool { return a.kind.IsEnemy() }

// State returns the lifecycle state after the last tick.
func (a *Agent) State() AgentState { return a.state }

// Intensity returns the current input intensity.
func (a *Agent) Intensity() float64 { return a.intensity }

// SetIntensity sets the input intensity, clamped to [0,1].
func (a *Agent) SetIntensity(v float64) { a.intensity = clamp01(v) }

// OwnedCount returns the number of cells this agent holds.
func (a *Agent) OwnedCount() int { return a.grid.CountOwned(a.id) }

// HistoryLen returns the number of waves on the stack.
func (a *Agent) HistoryLen() int { return len(a.history) }

// History returns a copy of the wave stack restricted to cells the agent
// still owns. Cells lost to pushes are not members of any wave, and a cell
// lost then reclaimed belongs only to the newest wave holding it.
func (a *Agent) History() [][]Coord {
	out := make([][]Coord, len(a.history))
	seen := make(map[Coord]struct{})
	for i := len(a.history) - 1; i >= 0; i-- {
		kept := make([]Coord, 0, len(a.history[i]))
		for _, c := range a.history[i] {
			if a.grid.OwnerAt(c) != a.id {
				continue
			}
			if _, dup := seen[c]; dup {
				continue
			}
			seen[c] = struct{}{}
			kept = append(kept, c)
		}
		out[i] = kept
	}
	return out
}

// Frontier returns a copy of the frontier restricted to owned cells.
func (a *Agent) Frontier() []Coord {
	out := make([]Coord, 0, len(a.frontier))
	for _, c := range a.frontier {
		if a.grid.OwnerAt(c) == a.id {
			out = append(out, c)
		}
	}
	return out
}

// Seed places the agent's initial cells as the first wave.
func (a *Agent) Seed() {
	var wave []Coord
	switch {
	case len(a.cfg.SeedCells) > 0:
		for _, c := range a.cfg.SeedCells {
			if a.grid.Contains(c) && a.grid.OwnerAt(c) == CellFree {
				a.Claim(c.X, c.Y, &wave)
			}
		}
	case a.IsEnemy():
		wave = a.seedBand()
	case a.cfg.SeedAtStart:
		if c, ok := FindSpawnCell(a.grid, a.cfg.Seed, a.cfg.RespawnRadius); ok {
			a.Claim(c.X, c.Y, &wave)
		}
	}
	if len(wave) > 0 {
		a.history = append(a.history, wave)
		a.state = AgentGrowing
	} else {
		a.state = AgentDead
	}
}

// seedBand drops a sparse band of cells under the top of each column.
func (a *Agent) seedBand() []Coord {
	var wave []Coord
	sd := a.cfg.Seeding
	for x := 0; x < a.grid.Width; x++ {
		if a.rng.Float64() > sd.FillProbability {
			continue
		}
		top := -1
		for y := a.grid.Height - 1; y >= 0; y-- {
			if a.grid.Owner(x, y) == CellFree {
				top = y
				break
			}
		}
		if top < 0 {
			continue // column fully blocked
		}
		y := top
		if sd.MaxOffset > 0 {
			y = max(0, top-a.rng.Intn(sd.MaxOffset+1))
		}
		if a.grid.Owner(x, y) != CellFree {
			y = top
		}
		a.Claim(x, y, &wave)

		if a.rng.Float64() < sd.SecondRowChance {
			below := max(0, y-1)
			if a.grid.Owner(x, below) == CellFree {
				a.Claim(x, below, &wave)
			}
		}
	}
	return wave
}

// Tick advances the agent by one simulation step using its current intensity.
func (a *Agent) Tick() {
	switch {
	case a.IsEnemy():
		a.Grow(a.intensity)
		a.state = AgentGrowing
	case a.intensity > 0:
		if a.RespawnIfDead() {
			a.state = AgentRespawning
		} else {
			a.state = AgentGrowing
		}
		a.Grow(a.intensity)
	default:
		a.Shrink()
		a.state = AgentShrinking
	}

	if !a.grid.HasOwner(a.id) {
		a.state = AgentDead
		a.unfreezeAnchor()
	}
	a.thicken()
}

// thicken bumps the decay accumulator of every cell still held, once per
// cell even when stale wave entries repeat it.
func (a *Agent) thicken() {
	if len(a.mark) != a.grid.Width*a.grid.Height {
		a.mark = make([]uint32, a.grid.Width*a.grid.Height)
		a.markGen = 0
	}
	a.markGen++
	if a.markGen == 0 {
		clear(a.mark)
		a.markGen = 1
	}
	for _, wave := range a.history {
		for _, c := range wave {
			if a.grid.OwnerAt(c) != a.id {
				continue
			}
			i := c.Y*a.grid.Width + c.X
			if a.mark[i] == a.markGen {
				continue
			}
			a.mark[i] = a.markGen
			a.grid.BumpThickness(c.X, c.Y, ThicknessStep, ThicknessCap)
		}
	}
}

// Grow claims up to a budget of cells adjacent to the frontier and pushes the
// claimed cells as one new wave. It returns the number of cells claimed.
func (a *Agent) Grow(strength float64) int {
	if len(a.frontier) == 0 {
		a.RebuildFrontier()
		if len(a.frontier) == 0 {
			return 0 // stuck or dead
		}
	}

	budget := a.kind.budget(a, a.cfg.Rates.Budget(strength))
	var wave []Coord

	for spent := 0; spent < budget && len(a.frontier) > 0; {
		idx := a.kind.pickFrontier(a)
		src := a.frontier[idx]

		// Cells pushed away by another agent leave the frontier lazily.
		if a.grid.OwnerAt(src) != a.id {
			a.dropFrontier(idx)
			continue
		}
		if a.growFrom(src, &wave) {
			spent++
			continue
		}
		if a.fullyBlocked(src) {
			a.dropFrontier(idx)
			continue
		}
		spent++
	}

	if len(wave) > 0 {
		a.history = append(a.history, wave)
	}
	return len(wave)
}

// growFrom tries the neighbours of src in strategy order and claims the first
// free or successfully pushed one.
func (a *Agent) growFrom(src Coord, wave *[]Coord) bool {
	a.nbuf = a.kind.neighbours(a, src, a.nbuf)
	for _, n := range a.nbuf {
		if !a.grid.Contains(n) {
			continue
		}
		cell := a.grid.OwnerAt(n)
		switch {
		case cell == CellFree:
			a.Claim(n.X, n.Y, wave)
			return true
		case cell == CellWall || cell == a.id:
			continue
		case a.push.TryPush(n, a.id, cell, a.intensity):
			a.notePush(n, cell)
			a.Claim(n.X, n.Y, wave)
			return true
		}
	}
	return false
}

// fullyBlocked reports whether src has nowhere left to grow. Free and foreign
// neighbours both keep it on the frontier.
func (a *Agent) fullyBlocked(src Coord) bool {
	for _, n := range [4]Coord{src.Up(), src.Down(), src.Right(), src.Left()} {
		if !a.grid.Contains(n) {
			continue
		}
		cell := a.grid.OwnerAt(n)
		if cell != CellWall && cell != a.id {
			return false
		}
	}
	return true
}

// dropFrontier swap-removes frontier[i].
func (a *Agent) dropFrontier(i int) {
	last := len(a.frontier) - 1
	a.frontier[i] = a.frontier[last]
	a.frontier = a.frontier[:last]
}

// Claim takes (x, y) for this agent, records it in wave and the frontier and
// raises any notifications the takeover implies.
func (a *Agent) Claim(x, y int, wave *[]Coord) {
	prev := a.grid.Owner(x, y)
	c := Coord{x, y}

	a.grid.SetOwner(x, y, a.id)
	a.grid.SetThickness(x, y, ThicknessBase)
	*wave = append(*wave, c)
	a.frontier = append(a.frontier, c)

	if a.IsEnemy() {
		return
	}
	if IsEnemyID(prev) {
		a.raise(Event{Kind: EventPlayerTookEnemyCell, Agent: a.id, Other: prev, At: c})
	}
	if !a.anchorFrozen {
		a.anchorFrozen = true
		a.raise(Event{Kind: EventAnchorFreeze, Agent: a.id, At: c})
	}
}

// notePush reports a won contest. Only player attacks are announced.
func (a *Agent) notePush(c Coord, loser uint8) {
	if a.IsEnemy() {
		return
	}
	kind := EventPlayerPushedPlayer
	if IsEnemyID(loser) {
		kind = EventPlayerPushedEnemy
	}
	a.raise(Event{Kind: kind, Agent: a.id, Other: loser, At: c})
}

func (a *Agent) unfreezeAnchor() {
	if a.IsEnemy() || !a.anchorFrozen {
		return
	}
	a.anchorFrozen = false
	a.raise(Event{Kind: EventAnchorUnfreeze, Agent: a.id})
}

func (a *Agent) raise(e Event) {
	if a.events != nil {
		a.events.raise(e)
	}
}

// Shrink pops the newest wave and releases the cells in it that this agent
// still owns. It returns false when nothing was popped.
func (a *Agent) Shrink() bool {
	if len(a.history) == 0 {
		return false
	}
	if a.cfg.ProtectSeedWave && len(a.history) == 1 {
		return false
	}

	last := len(a.history) - 1
	wave := a.history[last]
	released := make(map[Coord]struct{}, len(wave))
	for _, c := range wave {
		if a.grid.OwnerAt(c) == a.id {
			a.grid.Release(c.X, c.Y)
		}
		released[c] = struct{}{}
	}
	a.history[last] = nil
	a.history = a.history[:last]

	kept := a.frontier[:0]
	for _, c := range a.frontier {
		if _, gone := released[c]; !gone {
			kept = append(kept, c)
		}
	}
	a.frontier = kept
	return true
}

// RebuildFrontier rescans the grid for owned cells with at least one
// neighbour this agent does not own.
func (a *Agent) RebuildFrontier() {
	a.frontier = a.frontier[:0]
	for y := 0; y < a.grid.Height; y++ {
		for x := 0; x < a.grid.Width; x++ {
			if a.grid.Owner(x, y) != a.id {
				continue
			}
			c := Coord{x, y}
			if a.grid.hasNeighbourNotOwnedBy(c, a.id) {
				a.frontier = append(a.frontier, c)
			}
		}
	}
}

// RespawnIfDead reseeds a player that holds no cells. The anchor position is
// preferred over the configured seed. It returns true if a cell was claimed.
func (a *Agent) RespawnIfDead() bool {
	if a.IsEnemy() || a.grid.HasOwner(a.id) {
		return false
	}
	a.history = a.history[:0]
	a.frontier = a.frontier[:0]

	want := a.cfg.Seed
	if a.anchor != nil {
		if c, ok := a.anchor.Anchor(a.id); ok {
			want = c
		}
	}
	c, ok := FindSpawnCell(a.grid, want, a.cfg.RespawnRadius)
	if !ok {
		return false
	}

	var wave []Coord
	a.Claim(c.X, c.Y, &wave)
	a.history = append(a.history, wave)
	a.raise(Event{Kind: EventAgentRespawned, Agent: a.id, At: c})
	return true
}
