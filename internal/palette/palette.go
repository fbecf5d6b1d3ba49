// Package palette holds the board colours shared by every renderer.
package palette

import (
	"image/color"

	"github.com/Garsondee/Slime-Siege/internal/sim"
)

var (
	Free = color.RGBA{R: 18, G: 22, B: 28, A: 255}
	Wall = color.RGBA{R: 70, G: 64, B: 58, A: 255}

	// agents is indexed by owner id.
	agents = map[uint8]color.RGBA{
		sim.FirstPlayerID:     {R: 240, G: 90, B: 170, A: 255}, // pink
		sim.FirstPlayerID + 1: {R: 90, G: 200, B: 250, A: 255}, // cyan
		sim.FirstPlayerID + 2: {R: 250, G: 200, B: 60, A: 255}, // amber
		sim.EnemyID:           {R: 110, G: 220, B: 70, A: 255}, // slime green
	}
)

// Owner returns the full-strength colour for an agent id.
func Owner(id uint8) color.RGBA {
	if c, ok := agents[id]; ok {
		return c
	}
	return color.RGBA{R: 200, G: 200, B: 200, A: 255}
}

// Cell shades an owned cell by its thickness: freshly claimed cells are
// dim, long-held cells approach full brightness.
func Cell(owner, thickness uint8) color.RGBA {
	switch owner {
	case sim.CellFree:
		return Free
	case sim.CellWall:
		return Wall
	}
	base := Owner(owner)
	k := 0.35 + 0.65*float64(thickness)/255
	return color.RGBA{
		R: uint8(float64(base.R) * k),
		G: uint8(float64(base.G) * k),
		B: uint8(float64(base.B) * k),
		A: 255,
	}
}
