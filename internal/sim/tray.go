package sim

import (
	"math"
	"math/rand"
	"time"
)

// TrayConfig describes the sweep of one spawn anchor.
type TrayConfig struct {
	Left  int     `yaml:"left"`  // leftmost column
	Right int     `yaml:"right"` // rightmost column
	Row   int     `yaml:"row"`   // spawn row
	Speed float64 `yaml:"speed"` // sweep phase advance, radians per second
}

// tray is one sweeping anchor.
type tray struct {
	cfg    TrayConfig
	t      float64
	frozen bool
}

func (tr *tray) position() Coord {
	half := float64(tr.cfg.Right-tr.cfg.Left) / 2
	center := float64(tr.cfg.Right+tr.cfg.Left) / 2
	x := int(math.Round(center + math.Sin(tr.t)*half))
	x = min(max(x, tr.cfg.Left), tr.cfg.Right)
	return Coord{X: x, Y: tr.cfg.Row}
}

// Trays moves one spawn anchor per player back and forth along a row. An
// anchor stops while its player holds territory and resumes once the player
// dies. Trays implements AnchorSource and EventSink.
type Trays struct {
	trays map[uint8]*tray
}

// NewTrays creates anchors for player ids FirstPlayerID.. in order, each
// starting at a random phase so they do not move in lockstep.
func NewTrays(cfgs []TrayConfig, rng *rand.Rand) *Trays {
	ts := &Trays{trays: make(map[uint8]*tray, len(cfgs))}
	for i, c := range cfgs {
		id := FirstPlayerID + uint8(i) // #nosec G115 -- bounded by player slots
		ts.trays[id] = &tray{cfg: c, t: rng.Float64() * 100}
	}
	return ts
}

// Update advances every unfrozen anchor by dt.
func (ts *Trays) Update(dt time.Duration) {
	for _, tr := range ts.trays {
		if tr.frozen {
			continue
		}
		tr.t += dt.Seconds() * tr.cfg.Speed
	}
}

// Anchor implements AnchorSource.
func (ts *Trays) Anchor(id uint8) (Coord, bool) {
	tr, ok := ts.trays[id]
	if !ok {
		return Coord{}, false
	}
	return tr.position(), true
}

// Frozen reports whether the anchor for id is currently held still.
func (ts *Trays) Frozen(id uint8) bool {
	tr, ok := ts.trays[id]
	return ok && tr.frozen
}

// HandleEvent implements EventSink.
func (ts *Trays) HandleEvent(e Event) {
	tr, ok := ts.trays[e.Agent]
	if !ok {
		return
	}
	switch e.Kind {
	case EventAnchorFreeze:
		tr.frozen = true
	case EventAnchorUnfreeze:
		tr.frozen = false
	}
}

// DefaultTrayConfigs spreads count anchors evenly across the bottom row of a
// width-wide grid, each sweeping its own third.
func DefaultTrayConfigs(width, count int) []TrayConfig {
	if count <= 0 {
		return nil
	}
	out := make([]TrayConfig, count)
	span := width / count
	for i := range out {
		left := i * span
		right := left + span - 1
		if i == count-1 {
			right = width - 1
		}
		out[i] = TrayConfig{Left: left, Right: right, Row: 0, Speed: 0.3}
	}
	return out
}
