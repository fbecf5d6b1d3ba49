package game

import (
	"github.com/Garsondee/Slime-Siege/internal/palette"
	"github.com/Garsondee/Slime-Siege/internal/sim"
)

// fillPixels writes the board into an RGBA byte buffer with image row 0
// holding the top grid row (y = Height-1). dst must hold Width*Height*4 bytes.
func fillPixels(dst []byte, g *sim.GridMap) {
	w, h := g.Width, g.Height
	for y := 0; y < h; y++ {
		row := h - 1 - y
		for x := 0; x < w; x++ {
			c := palette.Cell(g.Owner(x, y), g.Thickness(x, y))
			i := (row*w + x) * 4
			dst[i] = c.R
			dst[i+1] = c.G
			dst[i+2] = c.B
			dst[i+3] = c.A
		}
	}
}
