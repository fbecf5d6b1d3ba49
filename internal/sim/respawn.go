package sim

// DefaultRespawnRadius bounds the ring search around a blocked spawn point.
const DefaultRespawnRadius = 5

// clampToGrid pulls c inside the grid bounds.
func clampToGrid(g *GridMap, c Coord) Coord {
	c.X = min(max(c.X, 0), g.Width-1)
	c.Y = min(max(c.Y, 0), g.Height-1)
	return c
}

// FindSpawnCell picks where a dead player reappears. The preferred cell is
// clamped into the grid and used unless it is a wall; otherwise squares of
// growing radius are scanned (x outer, y inner) for the first free cell.
// ok is false when nothing free lies within radius.
func FindSpawnCell(g *GridMap, want Coord, radius int) (Coord, bool) {
	c := clampToGrid(g, want)
	if g.OwnerAt(c) != CellWall {
		return c, true
	}
	for r := 1; r <= radius; r++ {
		for dx := -r; dx <= r; dx++ {
			for dy := -r; dy <= r; dy++ {
				n := Coord{c.X + dx, c.Y + dy}
				if !g.Contains(n) {
					continue
				}
				if g.OwnerAt(n) == CellFree {
					return n, true
				}
			}
		}
	}
	return Coord{}, false
}
