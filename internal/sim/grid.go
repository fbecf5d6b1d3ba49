package sim

import (
	"errors"
	"fmt"
)

// Cell values stored in the ownership array.
const (
	CellFree uint8 = 0 // unclaimed, growable
	CellWall uint8 = 1 // fixed at construction, never claimed

	FirstPlayerID uint8 = 2
	LastPlayerID  uint8 = 4
	EnemyID       uint8 = 5
)

// Thickness accumulator constants. Thickness is a render-only decay value.
const (
	ThicknessBase = 50  // value written on claim
	ThicknessStep = 2   // per-tick increment while held
	ThicknessCap  = 210 // increment ceiling
)

// ErrInvalidSize is returned when a grid is constructed with non-positive dimensions.
var ErrInvalidSize = errors.New("grid dimensions must be positive")

// Coord is a grid coordinate. Y grows upward: row 0 is the bottom of the map.
type Coord struct {
	X, Y int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Up, Down, Right and Left return the 4-neighbours of c.
func (c Coord) Up() Coord    { return Coord{c.X, c.Y + 1} }
func (c Coord) Down() Coord  { return Coord{c.X, c.Y - 1} }
func (c Coord) Right() Coord { return Coord{c.X + 1, c.Y} }
func (c Coord) Left() Coord  { return Coord{c.X - 1, c.Y} }

// IsPlayerID reports whether id belongs to one of the player agents.
func IsPlayerID(id uint8) bool {
	return id >= FirstPlayerID && id <= LastPlayerID
}

// IsEnemyID reports whether id belongs to an enemy agent.
func IsEnemyID(id uint8) bool {
	return id >= EnemyID
}

// GridMap is the shared ownership board. Every agent reads and writes the
// same instance; there is no locking because ticks run sequentially.
type GridMap struct {
	Width  int
	Height int

	owner     []uint8 // row-major: index = y*Width + x
	thickness []uint8
	counts    [256]int // cells held per owner value
}

// NewGridMap creates an all-free grid.
func NewGridMap(width, height int) (*GridMap, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("new grid %dx%d: %w", width, height, ErrInvalidSize)
	}
	g := &GridMap{
		Width:     width,
		Height:    height,
		owner:     make([]uint8, width*height),
		thickness: make([]uint8, width*height),
	}
	g.counts[CellFree] = width * height
	return g, nil
}

// InBounds returns true if (x, y) is within the grid.
func (g *GridMap) InBounds(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// Contains is InBounds for a Coord.
func (g *GridMap) Contains(c Coord) bool {
	return g.InBounds(c.X, c.Y)
}

// Owner returns the cell value at (x, y). Callers must bounds-check.
func (g *GridMap) Owner(x, y int) uint8 {
	return g.owner[y*g.Width+x]
}

// OwnerAt is Owner for a Coord.
func (g *GridMap) OwnerAt(c Coord) uint8 {
	return g.owner[c.Y*g.Width+c.X]
}

// Thickness returns the decay accumulator at (x, y).
func (g *GridMap) Thickness(x, y int) uint8 {
	return g.thickness[y*g.Width+x]
}

// IsWall reports whether (x, y) is a wall cell.
func (g *GridMap) IsWall(x, y int) bool {
	return g.owner[y*g.Width+x] == CellWall
}

// SetOwner writes an owner id. Wall cells are never overwritten, and writing
// CellWall through this method is ignored: walls only come from construction.
func (g *GridMap) SetOwner(x, y int, id uint8) {
	i := y*g.Width + x
	prev := g.owner[i]
	if prev == CellWall || id == CellWall || prev == id {
		return
	}
	g.counts[prev]--
	g.counts[id]++
	g.owner[i] = id
}

// SetThickness overwrites the decay accumulator at (x, y).
func (g *GridMap) SetThickness(x, y int, v uint8) {
	g.thickness[y*g.Width+x] = v
}

// Release frees a claimed cell and zeroes its thickness.
func (g *GridMap) Release(x, y int) {
	i := y*g.Width + x
	if g.owner[i] == CellWall {
		return
	}
	g.SetOwner(x, y, CellFree)
	g.thickness[i] = 0
}

// BumpThickness adds step to the accumulator, saturating at ceiling.
func (g *GridMap) BumpThickness(x, y, step, ceiling int) {
	i := y*g.Width + x
	v := int(g.thickness[i]) + step
	if v > ceiling {
		v = ceiling
	}
	if v > 255 {
		v = 255
	}
	g.thickness[i] = uint8(v) // #nosec G115 -- clamped to 255 above
}

// CountOwned returns the number of cells currently holding id.
func (g *GridMap) CountOwned(id uint8) int {
	return g.counts[id]
}

// HasOwner reports whether id holds at least one cell.
func (g *GridMap) HasOwner(id uint8) bool {
	return g.counts[id] > 0
}

// NonWallCount returns the number of cells that are not walls.
func (g *GridMap) NonWallCount() int {
	return g.Width*g.Height - g.counts[CellWall]
}

// ScanCount counts id by walking the whole board. It exists to cross-check
// the incremental counters.
func (g *GridMap) ScanCount(id uint8) int {
	n := 0
	for _, v := range g.owner {
		if v == id {
			n++
		}
	}
	return n
}

// Cells returns a copy of the ownership array in row-major order, for renderers.
func (g *GridMap) Cells() []uint8 {
	out := make([]uint8, len(g.owner))
	copy(out, g.owner)
	return out
}

// setWall marks (x, y) as a wall. Only used while the map is being built.
func (g *GridMap) setWall(x, y int) {
	i := y*g.Width + x
	prev := g.owner[i]
	if prev == CellWall {
		return
	}
	g.counts[prev]--
	g.counts[CellWall]++
	g.owner[i] = CellWall
	g.thickness[i] = 0
}

// hasNeighbourNotOwnedBy reports whether c has an in-bounds 4-neighbour whose
// value differs from id.
func (g *GridMap) hasNeighbourNotOwnedBy(c Coord, id uint8) bool {
	for _, n := range [4]Coord{c.Up(), c.Down(), c.Right(), c.Left()} {
		if !g.Contains(n) {
			continue
		}
		if g.OwnerAt(n) != id {
			return true
		}
	}
	return false
}
