package sim

import (
	"math/rand"
	"testing"
)

// quietEnemy parks the enemy on one cell with zero intensity so player
// scenarios are not disturbed.
func quietEnemy(c Coord) SimOption {
	return WithSimOption(WithEnemyCells(c))
}

func TestGrowthRates_Budget(t *testing.T) {
	gr := GrowthRates{Min: 0, Max: 10}
	cases := map[float64]int{0: 0, 0.35: 4, 1: 10, 2: 10}
	for strength, want := range cases {
		if got := gr.Budget(strength); got != want {
			t.Errorf("Budget(%v) = %d, want %d", strength, got, want)
		}
	}
}

func TestEnemy_SingleTickGrowth(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(10, 10),
		WithConfig(func(c *Config) {
			c.PlayerCount = 0
			c.EnemyRates = GrowthRates{Min: 0, Max: 10}
		}),
		WithSimOption(WithEnemyCells(Coord{5, 9})),
		WithHeldIntensity(EnemyID, 1),
	)
	before := ts.Enemy().OwnedCount()
	if before != 1 {
		t.Fatalf("seed cells = %d, want 1", before)
	}

	ts.RunTicks(1)

	enemy := ts.Enemy()
	added := enemy.OwnedCount() - before
	if added < 1 || added > 10 {
		t.Fatalf("added %d cells, want 1..10", added)
	}
	if enemy.HistoryLen() != 2 {
		t.Fatalf("history length = %d, want 2", enemy.HistoryLen())
	}
	// Every new cell touches the territory it grew from.
	owned := map[Coord]bool{{5, 9}: true}
	for _, c := range enemy.History()[1] {
		adjacent := false
		for _, n := range [4]Coord{c.Up(), c.Down(), c.Right(), c.Left()} {
			if owned[n] {
				adjacent = true
			}
		}
		if !adjacent {
			t.Errorf("cell %v is not adjacent to earlier territory", c)
		}
		owned[c] = true
	}
}

func TestPlayer_ShrinkPopsNewestWave(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(20, 20),
		WithConfig(func(c *Config) {
			c.PlayerCount = 1
			c.PlayerSeeds = []Coord{{10, 0}}
			c.PlayerSeedAtStart = true
		}),
		quietEnemy(Coord{0, 19}),
	)
	p := ts.Players()[0]
	ts.SetIntensity(p.ID(), 1)
	ts.Step()
	ts.Step()
	hist := p.History()
	newest := hist[len(hist)-1]
	if len(newest) == 0 {
		t.Fatal("expected a non-empty newest wave")
	}
	waves := p.HistoryLen()

	ts.SetIntensity(p.ID(), 0)
	ts.Step()

	if p.HistoryLen() != waves-1 {
		t.Errorf("history %d -> %d, want one wave popped", waves, p.HistoryLen())
	}
	for _, c := range newest {
		if ts.Grid().OwnerAt(c) != CellFree {
			t.Errorf("cell %v from the popped wave still owned by %d", c, ts.Grid().OwnerAt(c))
		}
	}
	if p.State() != AgentShrinking {
		t.Errorf("state = %v, want shrinking", p.State())
	}
}

func TestPlayer_ProtectSeedWave(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(20, 20),
		WithConfig(func(c *Config) {
			c.PlayerCount = 1
			c.PlayerSeeds = []Coord{{10, 0}}
			c.PlayerSeedAtStart = true
			c.ProtectSeedWave = true
		}),
		quietEnemy(Coord{0, 19}),
		WithHeldIntensity(FirstPlayerID, 1),
	)
	ts.RunTicks(5)
	ts.intensity[FirstPlayerID] = 0
	ts.RunTicks(20)

	p := ts.Players()[0]
	if p.HistoryLen() != 1 {
		t.Fatalf("history = %d, want only the seed wave", p.HistoryLen())
	}
	if ts.Grid().Owner(10, 0) != FirstPlayerID {
		t.Error("seed cell should survive shrinking")
	}
	if p.State() == AgentDead {
		t.Error("protected player must not die from shrinking")
	}
}

func TestPlayer_DiesAndRespawns(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(20, 20),
		WithConfig(func(c *Config) {
			c.PlayerCount = 1
			c.PlayerSeeds = []Coord{{10, 0}}
			c.PlayerSeedAtStart = true
		}),
		quietEnemy(Coord{0, 19}),
		WithHeldIntensity(FirstPlayerID, 1),
	)
	ts.RunTicks(3)
	ts.intensity[FirstPlayerID] = 0
	ts.RunTicks(10)

	p := ts.Players()[0]
	if p.State() != AgentDead || p.OwnedCount() != 0 {
		t.Fatalf("player should be dead, state=%v owned=%d", p.State(), p.OwnedCount())
	}
	if ts.Log.Count(EventAnchorUnfreeze) != 1 {
		t.Errorf("expected one anchor unfreeze, got %d", ts.Log.Count(EventAnchorUnfreeze))
	}

	ts.intensity[FirstPlayerID] = 1
	ts.RunTicks(1)
	if p.OwnedCount() == 0 {
		t.Fatal("player should respawn on a positive-intensity tick")
	}
	e, ok := ts.Log.LastOf(EventAgentRespawned)
	if !ok || e.At != (Coord{10, 0}) || e.Agent != FirstPlayerID {
		t.Errorf("respawn event = %v,%v", e, ok)
	}
	if p.State() != AgentRespawning {
		t.Errorf("state = %v, want respawning", p.State())
	}
}

type fixedAnchor Coord

func (f fixedAnchor) Anchor(uint8) (Coord, bool) { return Coord(f), true }

func TestPlayer_RespawnPrefersAnchor(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(20, 20),
		WithConfig(func(c *Config) {
			c.PlayerCount = 1
			c.PlayerSeeds = []Coord{{10, 0}}
		}),
		quietEnemy(Coord{0, 19}),
		WithSimOption(WithAnchor(fixedAnchor{3, 2})),
		WithHeldIntensity(FirstPlayerID, 1),
	)
	p := ts.Players()[0]
	if p.OwnedCount() != 0 || p.State() != AgentDead {
		t.Fatalf("player without SeedAtStart should start empty, owned=%d", p.OwnedCount())
	}
	ts.RunTicks(1)
	if e, ok := ts.Log.LastOf(EventAgentRespawned); !ok || e.At != (Coord{3, 2}) {
		t.Errorf("respawn at %v, want anchor (3,2)", e.At)
	}
	if ts.Log.Count(EventAnchorFreeze) != 1 {
		t.Errorf("first claim should freeze the anchor once, got %d", ts.Log.Count(EventAnchorFreeze))
	}
}

func TestRebuildFrontier_Sound(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(30, 20),
		WithWallRect(12, 5, 6, 3),
		WithTestSeed(9),
		WithHeldIntensity(FirstPlayerID, 1),
		WithHeldIntensity(FirstPlayerID+1, 0.5),
		WithHeldIntensity(EnemyID, 0.6),
		WithConfig(func(c *Config) { c.PlayerSeedAtStart = true }),
	)
	ts.RunTicks(40)
	for _, a := range ts.Agents() {
		a.RebuildFrontier()
		for _, c := range a.Frontier() {
			if ts.Grid().OwnerAt(c) != a.ID() {
				t.Errorf("agent %d frontier cell %v not owned", a.ID(), c)
			}
			if !ts.Grid().hasNeighbourNotOwnedBy(c, a.ID()) {
				t.Errorf("agent %d frontier cell %v is interior", a.ID(), c)
			}
		}
	}
}

func TestFrontier_ForeignNeighbourKeepsCell(t *testing.T) {
	// The seed's only open side is enemy-held and every roll fails, so the
	// cell has to stay on the frontier until the pity counter hands it over.
	for _, keep := range []bool{false, true} {
		ts := NewTestSim(
			WithGridSize(2, 1),
			WithConfig(func(c *Config) {
				c.PlayerCount = 1
				c.PlayerSeeds = []Coord{{0, 0}}
				c.PlayerSeedAtStart = true
				c.PlayerRates = GrowthRates{Min: 0, Max: 10}
				c.Player = PlayerKind{VerticalBias: 1, DownChance: 0}
				c.Push = PushConfig{GuaranteeAfterFails: 3}
				c.KeepFrontierAtBorder = keep
			}),
			quietEnemy(Coord{1, 0}),
			WithHeldIntensity(FirstPlayerID, 1),
		)
		ts.RunTicks(1)

		if got := ts.Grid().Owner(1, 0); got != FirstPlayerID {
			t.Errorf("keep=%v: contested cell owner = %d, want %d", keep, got, FirstPlayerID)
		}
		if n := ts.Push().FailCount(Coord{1, 0}); n != 0 {
			t.Errorf("keep=%v: fail counter = %d after the guaranteed win", keep, n)
		}
	}
}

func TestPlayer_ReclaimedCellCountedOnce(t *testing.T) {
	g, _ := NewGridMap(3, 1)
	rng := rand.New(rand.NewSource(1)) // #nosec G404 -- test only
	a := newAgent(AgentConfig{ID: FirstPlayerID, Kind: DefaultPlayerKind()}, g, nil, rng, nil)

	var first, second []Coord
	a.Claim(0, 0, &first)
	a.Claim(1, 0, &first)
	g.SetOwner(1, 0, EnemyID)
	a.Claim(1, 0, &second)
	a.history = [][]Coord{first, second}

	a.thicken()
	if got := g.Thickness(1, 0); got != ThicknessBase+ThicknessStep {
		t.Errorf("reclaimed cell thickness = %d, want %d", got, ThicknessBase+ThicknessStep)
	}
	if got := g.Thickness(0, 0); got != ThicknessBase+ThicknessStep {
		t.Errorf("seed cell thickness = %d, want %d", got, ThicknessBase+ThicknessStep)
	}

	hist := a.History()
	if len(hist[0]) != 1 || hist[0][0] != (Coord{0, 0}) {
		t.Errorf("oldest wave = %v, want only the seed cell", hist[0])
	}
	if len(hist[1]) != 1 || hist[1][0] != (Coord{1, 0}) {
		t.Errorf("newest wave = %v, want the reclaimed cell", hist[1])
	}

	// A second pass bumps again, once.
	a.thicken()
	if got := g.Thickness(1, 0); got != ThicknessBase+2*ThicknessStep {
		t.Errorf("after two passes thickness = %d, want %d", got, ThicknessBase+2*ThicknessStep)
	}
}

func TestPlayer_PushEventsOnlyForPlayers(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(5, 5),
		WithConfig(func(c *Config) {
			c.PlayerCount = 1
			c.PlayerSeeds = []Coord{{2, 0}}
			c.PlayerSeedAtStart = true
			c.Push = PushConfig{PlayerVsEnemy: 1} // players always win, the enemy never does
		}),
		WithSimOption(WithEnemyCells(fillRows(5, 1, 5)...)),
		WithHeldIntensity(FirstPlayerID, 1),
		WithHeldIntensity(EnemyID, 1),
	)
	ts.RunTicks(5)

	pushes := ts.Log.Filter(EventPlayerPushedEnemy)
	if len(pushes) == 0 {
		t.Fatalf("expected the player to push the enemy:\n%s", ts.Log.Format())
	}
	perTick := map[int]int{}
	for _, e := range pushes {
		perTick[e.Tick]++
		if e.Agent != FirstPlayerID || e.Other != EnemyID {
			t.Errorf("push event has wrong agents: %v", e)
		}
	}
	for tick, n := range perTick {
		if n > 1 {
			t.Errorf("tick %d raised %d push events, want at most 1", tick, n)
		}
	}
	if ts.Log.Count(EventPlayerTookEnemyCell) == 0 {
		t.Error("taking enemy cells should be reported")
	}
	for _, e := range ts.Log.FilterAgent(EnemyID) {
		if e.Kind == EventPlayerPushedPlayer || e.Kind == EventPlayerPushedEnemy {
			t.Errorf("enemy raised a player push event: %v", e)
		}
	}
}

// fillRows returns every cell of rows [from, to) on a width-wide grid.
func fillRows(width, from, to int) []Coord {
	var out []Coord
	for y := from; y < to; y++ {
		for x := 0; x < width; x++ {
			out = append(out, Coord{x, y})
		}
	}
	return out
}

func TestPlayerKind_Neighbours(t *testing.T) {
	g, _ := NewGridMap(10, 10)
	rng := rand.New(rand.NewSource(4)) // #nosec G404 -- test only
	a := newAgent(AgentConfig{ID: FirstPlayerID, Kind: PlayerKind{VerticalBias: 1, DownChance: 0}}, g, nil, rng, nil)
	pk := a.kind.(PlayerKind)

	for i := 0; i < 50; i++ {
		got := pk.neighbours(a, Coord{5, 5}, nil)
		if len(got) != 3 {
			t.Fatalf("bias 1 should always offer up, right and left, got %v", got)
		}
		for _, n := range got {
			if n == (Coord{5, 4}) {
				t.Fatal("down offered with DownChance 0")
			}
		}
	}

	pk = PlayerKind{VerticalBias: 1e9, DownChance: 1}
	got := pk.neighbours(a, Coord{5, 0}, nil)
	hasDown := false
	for _, n := range got {
		if n == (Coord{5, -1}) {
			hasDown = true
		}
	}
	if !hasDown {
		t.Errorf("DownChance 1 should always offer down, got %v", got)
	}
}

func TestEnemyKind_PickFrontierFollowsColumnSpeed(t *testing.T) {
	g, _ := NewGridMap(3, 3)
	rng := rand.New(rand.NewSource(2)) // #nosec G404 -- test only
	ek := EnemyKind{ColumnSpeed: []float64{0, 5, 0}}
	a := newAgent(AgentConfig{ID: EnemyID, Kind: ek}, g, nil, rng, nil)
	a.frontier = []Coord{{0, 2}, {1, 2}, {2, 2}}
	for i := 0; i < 100; i++ {
		if idx := ek.pickFrontier(a); a.frontier[idx].X != 1 {
			t.Fatalf("picked column %d with zero speed", a.frontier[idx].X)
		}
	}
}

func TestEnemyKind_NeighbourOrder(t *testing.T) {
	got := EnemyKind{}.neighbours(nil, Coord{4, 4}, nil)
	want := []Coord{{4, 5}, {4, 3}, {5, 4}, {3, 4}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("neighbours = %v, want %v", got, want)
		}
	}
}

func TestEnemyKind_RegrowthScalesBudget(t *testing.T) {
	g, _ := NewGridMap(4, 4)
	rng := rand.New(rand.NewSource(2)) // #nosec G404 -- test only
	a := newAgent(AgentConfig{ID: EnemyID, Kind: EnemyKind{}}, g, nil, rng, nil)
	a.frontier = []Coord{{0, 3}, {1, 3}}
	if got := a.kind.budget(a, 10); got != 10 {
		t.Errorf("no regrowth hook: budget %d, want 10", got)
	}
	a.regrowth = func(x, y int) float64 { return 0.5 }
	if got := a.kind.budget(a, 10); got != 5 {
		t.Errorf("half regrowth: budget %d, want 5", got)
	}
}

func TestEnemySeedBand(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(60, 20),
		WithConfig(func(c *Config) {
			c.PlayerCount = 0
			c.EnemySeeding = EnemySeeding{FillProbability: 1, MaxOffset: 3, SecondRowChance: 0}
		}),
	)
	e := ts.Enemy()
	if e.OwnedCount() != 60 {
		t.Fatalf("full fill probability should seed every column once, got %d", e.OwnedCount())
	}
	for _, c := range e.History()[0] {
		if c.Y < 20-1-3 {
			t.Errorf("seed %v dropped below the max offset", c)
		}
	}
}
