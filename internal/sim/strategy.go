package sim

import (
	"math"
	"math/rand"
)

// AgentKind selects how an agent picks frontier cells, orders neighbours and
// sizes its growth budget. It is a closed set: PlayerKind or EnemyKind.
type AgentKind interface {
	IsEnemy() bool
	pickFrontier(a *Agent) int
	neighbours(a *Agent, c Coord, buf []Coord) []Coord
	budget(a *Agent, base int) int
}

// PlayerKind grows like a water jet: up first, sideways sometimes, down rarely.
type PlayerKind struct {
	// VerticalBias is the inverse probability of considering horizontal
	// neighbours at the bottom of the grid. It relaxes toward 1 with height.
	VerticalBias float64
	// DownChance is the probability of considering the downward neighbour.
	DownChance float64
}

// DefaultPlayerKind returns the stock jet shape.
func DefaultPlayerKind() PlayerKind {
	return PlayerKind{VerticalBias: 4.0, DownChance: 0.2}
}

func (PlayerKind) IsEnemy() bool { return false }

func (PlayerKind) pickFrontier(a *Agent) int {
	return a.rng.Intn(len(a.frontier))
}

func (pk PlayerKind) neighbours(a *Agent, c Coord, buf []Coord) []Coord {
	buf = buf[:0]
	heightFactor := float64(c.Y) / float64(a.grid.Height)
	bias := lerp(pk.VerticalBias, 1.0, heightFactor*0.3)

	buf = append(buf, c.Up())
	if bias <= 0 || a.rng.Float64() < 1.0/bias {
		buf = append(buf, c.Right(), c.Left())
	}
	if a.rng.Float64() < pk.DownChance {
		buf = append(buf, c.Down())
	}
	a.rng.Shuffle(len(buf), func(i, j int) { buf[i], buf[j] = buf[j], buf[i] })
	return buf
}

func (PlayerKind) budget(_ *Agent, base int) int { return base }

// EnemyKind drips: each grid column carries a fixed speed weight so some
// columns run ahead of others.
type EnemyKind struct {
	ColumnSpeed []float64
}

// NewEnemyKind draws one speed weight per column, uniform in [lo, hi).
func NewEnemyKind(width int, lo, hi float64, rng *rand.Rand) EnemyKind {
	speeds := make([]float64, width)
	for x := range speeds {
		speeds[x] = lo + rng.Float64()*(hi-lo)
	}
	return EnemyKind{ColumnSpeed: speeds}
}

func (EnemyKind) IsEnemy() bool { return true }

func (ek EnemyKind) pickFrontier(a *Agent) int {
	if len(ek.ColumnSpeed) != a.grid.Width {
		return a.rng.Intn(len(a.frontier))
	}
	total := 0.0
	for _, c := range a.frontier {
		total += ek.ColumnSpeed[c.X]
	}
	r := a.rng.Float64() * total
	for i, c := range a.frontier {
		w := ek.ColumnSpeed[c.X]
		if r <= w {
			return i
		}
		r -= w
	}
	return len(a.frontier) - 1
}

func (EnemyKind) neighbours(_ *Agent, c Coord, buf []Coord) []Coord {
	return append(buf[:0], c.Up(), c.Down(), c.Right(), c.Left())
}

// regrowthSamples is how many frontier cells feed the regrowth multiplier.
const regrowthSamples = 5

func (EnemyKind) budget(a *Agent, base int) int {
	if a.regrowth == nil || len(a.frontier) == 0 {
		return base
	}
	n := min(regrowthSamples, len(a.frontier))
	sum := 0.0
	for i := 0; i < n; i++ {
		c := a.frontier[a.rng.Intn(len(a.frontier))]
		sum += a.regrowth(c.X, c.Y)
	}
	return int(math.Ceil(float64(base) * sum / float64(n)))
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
