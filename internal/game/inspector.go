package game

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/Garsondee/Slime-Siege/internal/session"
	"github.com/Garsondee/Slime-Siege/internal/sim"
	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Inspector panel: rendered into an offscreen buffer at 1x then blitted at inspScale.
const (
	inspScale = 2   // scale factor for inspector text rendering
	inspBufW  = 200 // buffer width in pixels (~33 chars at debug font)
	inspBufH  = 190 // buffer height in pixels
	inspPad   = 4   // padding in buffer-space pixels
	inspLineH = 13  // line height in buffer-space pixels
)

// Inspector holds the selected board cell and view toggle state.
type Inspector struct {
	selected sim.Coord
	active   bool
	rawView  bool // false = curated, true = raw dump
}

// screenToCell inverts the board transform. Screen rows grow downward while
// grid rows grow upward.
func (g *Game) screenToCell(mx, my int) (sim.Coord, bool) {
	bx, by := mx-borderWidth, my-borderWidth
	if bx < 0 || by < 0 || bx >= g.boardW || by >= g.boardH {
		return sim.Coord{}, false
	}
	return sim.Coord{X: bx / g.scale, Y: g.cfg.Grid.Height - 1 - by/g.scale}, true
}

// handleInspectorClick selects the clicked cell. Clicking outside the board
// deselects. Returns true if a cell was hit.
func (g *Game) handleInspectorClick(mx, my int) bool {
	c, ok := g.screenToCell(mx, my)
	g.inspector.selected = c
	g.inspector.active = ok
	return ok
}

// copyInspection puts the raw dump of the selected cell on the clipboard.
func (g *Game) copyInspection() {
	if !g.inspector.active {
		return
	}
	text := strings.Join(inspectRaw(g.sess, g.inspector.selected), "\n")
	if err := clipboard.WriteAll(text); err != nil {
		g.log.Warn("clipboard copy failed", "err", err)
		return
	}
	g.feed.Add(g.sess.Tick(), 0, "inspection copied")
}

// drawInspector renders the inspector panel into an offscreen buffer at 1x,
// then blits it onto the screen at inspScale for readability.
func (g *Game) drawInspector(screen *ebiten.Image) {
	if !g.inspector.active {
		return
	}
	c := g.inspector.selected

	// Outline the picked cell on the board.
	cx := float32(borderWidth + c.X*g.scale)
	cy := float32(borderWidth + (g.cfg.Grid.Height-1-c.Y)*g.scale)
	vector.StrokeRect(screen, cx-1, cy-1, float32(g.scale+2), float32(g.scale+2), 1.0, color.White, false)

	if g.inspBuf == nil {
		g.inspBuf = ebiten.NewImage(inspBufW, inspBufH)
	}
	g.inspBuf.Clear()
	buf := g.inspBuf
	bw := float32(inspBufW)
	bh := float32(inspBufH)

	panelBg := color.RGBA{R: 14, G: 16, B: 18, A: 230}
	panelBorder := color.RGBA{R: 60, G: 70, B: 80, A: 255}
	vector.FillRect(buf, 0, 0, bw, bh, panelBg, false)
	vector.StrokeRect(buf, 0, 0, bw, bh, 1.0, panelBorder, false)

	lx := inspPad
	ly := inspPad
	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("[ CELL %s ]", c), lx, ly)
	ly += inspLineH + 2

	viewName := "CURATED"
	lines := inspectCurated(g.sess, c)
	if g.inspector.rawView {
		viewName = "RAW"
		lines = inspectRaw(g.sess, c)
	}
	ebitenutil.DebugPrintAt(buf, fmt.Sprintf("view: %s  [I] [C]opy", viewName), lx, ly)
	ly += inspLineH + 4
	vector.StrokeLine(buf, float32(lx), float32(ly), bw-float32(inspPad), float32(ly), 1.0, panelBorder, false)
	ly += 4

	for _, l := range lines {
		if ly > inspBufH-inspLineH {
			break
		}
		ebitenutil.DebugPrintAt(buf, l, lx, ly)
		ly += inspLineH
	}

	// Bottom-right of the board, clear of the event feed.
	px := borderWidth + g.boardW - inspBufW*inspScale - 8
	py := borderWidth + g.boardH - inspBufH*inspScale - 8
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(inspScale), float64(inspScale))
	opts.GeoM.Translate(float64(max(borderWidth, px)), float64(max(borderWidth, py)))
	screen.DrawImage(buf, opts)
}

// ownerName labels a raw cell value.
func ownerName(v uint8) string {
	switch v {
	case sim.CellFree:
		return "free"
	case sim.CellWall:
		return "wall"
	default:
		return agentLabel(v)
	}
}

// inspectCurated is the organised, human-readable view of one cell and the
// agent holding it.
func inspectCurated(s *session.Session, c sim.Coord) []string {
	g := s.Grid()
	if !g.Contains(c) {
		return []string{"off the board"}
	}
	owner := g.OwnerAt(c)
	lines := []string{
		fmt.Sprintf("owner: %-5s thick: %d", ownerName(owner), g.Thickness(c.X, c.Y)),
	}
	if n := s.Push().FailCount(c); n > 0 {
		lines = append(lines, fmt.Sprintf("failed pushes here: %d", n))
	}

	a := s.Agent(owner)
	if a == nil {
		return lines
	}
	lines = append(lines,
		"-- "+agentLabel(a.ID())+" --",
		fmt.Sprintf("state: %s", a.State()),
		fmt.Sprintf("intensity: %.2f", a.Intensity()),
		fmt.Sprintf("cells: %d  waves: %d", a.OwnedCount(), a.HistoryLen()),
	)
	if !a.IsEnemy() && s.Trays != nil {
		if at, ok := s.Trays.Anchor(a.ID()); ok {
			frozen := ""
			if s.Trays.Frozen(a.ID()) {
				frozen = " (frozen)"
			}
			lines = append(lines, fmt.Sprintf("anchor: %s%s", at, frozen))
		}
	}
	return lines
}

// inspectRaw dumps every field the session exposes about the cell.
func inspectRaw(s *session.Session, c sim.Coord) []string {
	g := s.Grid()
	lines := []string{fmt.Sprintf("cell=%s tick=%d seed=%d", c, s.Tick(), s.Seed)}
	if !g.Contains(c) {
		return lines
	}
	owner := g.OwnerAt(c)
	lines = append(lines,
		fmt.Sprintf("owner=%d thick=%d fails=%d", owner, g.Thickness(c.X, c.Y), s.Push().FailCount(c)),
		fmt.Sprintf("phase=%s cov=%.4f", s.Phase(), s.Coverage()),
	)
	for _, a := range s.Agents() {
		mark := " "
		if a.ID() == owner {
			mark = "*"
		}
		lines = append(lines, fmt.Sprintf("%sA%d st=%s i=%.2f n=%d w=%d f=%d",
			mark, a.ID(), a.State(), a.Intensity(), a.OwnedCount(), a.HistoryLen(), len(a.Frontier())))
	}
	return lines
}
