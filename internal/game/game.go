package game

import (
	"fmt"
	"image/color"
	"log/slog"
	"time"

	"github.com/Garsondee/Slime-Siege/internal/config"
	"github.com/Garsondee/Slime-Siege/internal/logging"
	"github.com/Garsondee/Slime-Siege/internal/palette"
	"github.com/Garsondee/Slime-Siege/internal/session"
	"github.com/Garsondee/Slime-Siege/internal/sim"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// borderWidth is the pixel gap between the window edge and the board.
const borderWidth = 16

// hudHeight is the strip under the board holding trays, bars and text.
const hudHeight = 120

// maxBoardWidth bounds the scaled board so large grids still fit a window.
const maxBoardWidth = 1280

// digitKeys are the number-row and keypad keys, in rune order '1'..'9'.
var digitKeys = [9][2]ebiten.Key{
	{ebiten.KeyDigit1, ebiten.KeyNumpad1},
	{ebiten.KeyDigit2, ebiten.KeyNumpad2},
	{ebiten.KeyDigit3, ebiten.KeyNumpad3},
	{ebiten.KeyDigit4, ebiten.KeyNumpad4},
	{ebiten.KeyDigit5, ebiten.KeyNumpad5},
	{ebiten.KeyDigit6, ebiten.KeyNumpad6},
	{ebiten.KeyDigit7, ebiten.KeyNumpad7},
	{ebiten.KeyDigit8, ebiten.KeyNumpad8},
	{ebiten.KeyDigit9, ebiten.KeyNumpad9},
}

// Game is the windowed frontend: it owns one session at a time and
// rebuilds it after a decided game.
type Game struct {
	cfg     *config.Config
	builder *session.Builder
	sess    *session.Session
	feed    *EventFeed
	log     *slog.Logger

	width     int
	height    int
	scale     int // screen pixels per grid cell
	boardW    int
	boardH    int
	board     *ebiten.Image
	pixels    []byte
	showHUD   bool
	prevKeys  keyEdges
	gamepads  []ebiten.GamepadID
	simSpeed  float64 // multiplier: 0=paused, 0.5, 1, 2, 4
	sinceDone float64 // seconds shown since the game was decided

	// Cell inspector (click-to-select panel).
	inspector     Inspector
	inspBuf       *ebiten.Image
	prevMouseLeft bool
}

// New builds the first session from cfg.
func New(cfg *config.Config, logger *slog.Logger) (*Game, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	feed := NewEventFeed()
	b, err := session.NewBuilder(cfg, logger, feed, logging.EventSink(logger))
	if err != nil {
		return nil, err
	}

	scale := max(1, min(6, maxBoardWidth/cfg.Grid.Width))
	g := &Game{
		cfg:      cfg,
		builder:  b,
		feed:     feed,
		log:      logger,
		scale:    scale,
		boardW:   cfg.Grid.Width * scale,
		boardH:   cfg.Grid.Height * scale,
		showHUD:  true,
		prevKeys: make(keyEdges),
		simSpeed: 1.0,
	}
	g.width = borderWidth + g.boardW + borderWidth + feedPanelWidth
	g.height = borderWidth + g.boardH + hudHeight
	g.board = ebiten.NewImage(cfg.Grid.Width, cfg.Grid.Height)
	g.pixels = make([]byte, cfg.Grid.Width*cfg.Grid.Height*4)
	if err := g.restart(); err != nil {
		return nil, err
	}
	return g, nil
}

// restart replaces the current session with a freshly seeded one.
func (g *Game) restart() error {
	sess, err := g.builder.Build(g.builder.NextSeed())
	if err != nil {
		return err
	}
	g.sess = sess
	g.sinceDone = 0
	g.feed.Add(0, 0, fmt.Sprintf("new game, seed %d", sess.Seed))
	return nil
}

// Update implements ebiten.Game. Ebiten calls it at a fixed TPS; the
// session converts the elapsed time into whole simulation ticks.
func (g *Game) Update() error {
	g.handleInput()

	if g.simSpeed <= 0 {
		return nil
	}
	dt := time.Duration(float64(time.Second) * g.simSpeed / float64(ebiten.TPS()))
	g.sess.Advance(dt)

	if g.sess.Phase().Terminal() {
		g.sinceDone += dt.Seconds()
		if g.sinceDone >= g.cfg.Sim.RestartDelay {
			return g.restart()
		}
	}
	return nil
}

// keyEdges remembers which keys were down on the previous frame.
type keyEdges map[ebiten.Key]bool

// rose records k's state and reports a released-to-pressed transition.
func (e keyEdges) rose(k ebiten.Key, down bool) bool {
	was := e[k]
	e[k] = down
	return down && !was
}

// roseAny records every key before reporting whether any of them rose, so a
// held alternate is never mistaken for a fresh press on a later frame.
func (e keyEdges) roseAny(down func(ebiten.Key) bool, keys ...ebiten.Key) bool {
	hit := false
	for _, k := range keys {
		if e.rose(k, down(k)) {
			hit = true
		}
	}
	return hit
}

func (g *Game) handleInput() {
	keyPressed := func(k ebiten.Key) bool {
		return g.prevKeys.rose(k, ebiten.IsKeyPressed(k))
	}

	for i, keys := range digitKeys {
		if !g.prevKeys.roseAny(ebiten.IsKeyPressed, keys[0], keys[1]) {
			continue
		}
		slot, level, _ := session.KeyBinding(rune('1' + i))
		if in := g.sess.Input(slot); in != nil {
			in.SetKey(level)
		}
	}

	// Analogue triggers stand in for pedals: gamepad n drives player n.
	g.gamepads = ebiten.AppendGamepadIDs(g.gamepads[:0])
	for slot, id := range g.gamepads {
		in := g.sess.Input(slot)
		if in == nil || !ebiten.IsStandardGamepadLayoutAvailable(id) {
			continue
		}
		in.SetPedal(ebiten.StandardGamepadButtonValue(id, ebiten.StandardGamepadButtonFrontBottomRight))
	}

	if keyPressed(ebiten.KeyP) {
		if g.simSpeed == 0 {
			g.simSpeed = 1
		} else {
			g.simSpeed = 0
		}
	}
	if keyPressed(ebiten.KeyPeriod) {
		g.simSpeed = min(g.simSpeed*2, 4)
		if g.simSpeed == 0 {
			g.simSpeed = 0.5
		}
	}
	if keyPressed(ebiten.KeyComma) {
		g.simSpeed = max(g.simSpeed/2, 0.5)
	}
	if keyPressed(ebiten.KeyH) {
		g.showHUD = !g.showHUD
	}
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) && !g.prevMouseLeft {
		mx, my := ebiten.CursorPosition()
		g.handleInspectorClick(mx, my)
	}
	g.prevMouseLeft = ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	if keyPressed(ebiten.KeyI) {
		g.inspector.rawView = !g.inspector.rawView
	}
	if keyPressed(ebiten.KeyC) {
		g.copyInspection()
	}
	if keyPressed(ebiten.KeyR) {
		if err := g.restart(); err != nil {
			g.log.Error("restart failed", "err", err)
		}
	}
}

// Draw implements ebiten.Game.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 8, G: 9, B: 12, A: 255})

	fillPixels(g.pixels, g.sess.Grid())
	g.board.WritePixels(g.pixels)
	opts := &ebiten.DrawImageOptions{}
	opts.GeoM.Scale(float64(g.scale), float64(g.scale))
	opts.GeoM.Translate(borderWidth, borderWidth)
	screen.DrawImage(g.board, opts)
	vector.StrokeRect(screen, borderWidth-1, borderWidth-1, float32(g.boardW+2), float32(g.boardH+2), 1.0, color.RGBA{R: 60, G: 70, B: 80, A: 255}, false)

	g.drawTrays(screen)
	if g.showHUD {
		g.drawHUD(screen)
	}
	if ph := g.sess.Phase(); ph.Terminal() {
		g.drawBanner(screen, ph)
	}
	g.drawInspector(screen)
	g.feed.Draw(screen, g.width-feedPanelWidth, g.height)
}

// drawTrays marks each spawn anchor just under the board; a frozen anchor
// is drawn hollow.
func (g *Game) drawTrays(screen *ebiten.Image) {
	y := float32(borderWidth + g.boardH + 4)
	for _, p := range g.sess.Players() {
		at, ok := g.sess.Trays.Anchor(p.ID())
		if !ok {
			continue
		}
		x := float32(borderWidth + at.X*g.scale)
		c := palette.Owner(p.ID())
		if g.sess.Trays.Frozen(p.ID()) {
			vector.StrokeRect(screen, x-4, y, 8+float32(g.scale), 6, 1.0, c, false)
		} else {
			vector.FillRect(screen, x-4, y, 8+float32(g.scale), 6, c, false)
		}
	}
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	top := borderWidth + g.boardH + 16
	st := g.sess.Status()

	// Coverage bar with both win thresholds marked.
	barW := float32(g.boardW)
	vector.FillRect(screen, borderWidth, float32(top), barW, 10, color.RGBA{R: 30, G: 34, B: 40, A: 255}, false)
	vector.FillRect(screen, borderWidth, float32(top), barW*float32(st.Coverage), 10, palette.Owner(sim.EnemyID), false)
	for _, th := range []float64{g.cfg.Win.PlayerWinThreshold, g.cfg.Win.SlimeWinThreshold} {
		x := borderWidth + barW*float32(th)
		vector.StrokeLine(screen, x, float32(top-2), x, float32(top+12), 1.0, color.White, false)
	}

	speed := fmt.Sprintf("%.1fx", g.simSpeed)
	if g.simSpeed == 0 {
		speed = "PAUSED"
	}
	ebitenutil.DebugPrintAt(screen, fmt.Sprintf("tick %d  t=%.1fs  slime %.1f%%  %s  speed %s  seed %d",
		st.Tick, st.GameTime, st.Coverage*100, st.Phase, speed, g.sess.Seed), borderWidth, top+14)

	for i, p := range g.sess.Players() {
		x := borderWidth + i*220
		y := top + 34
		vector.FillRect(screen, float32(x), float32(y+4), 8, 8, palette.Owner(p.ID()), false)
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%s %-10s %5d", agentLabel(p.ID()), p.State(), p.OwnedCount()), x+12, y)
		vector.FillRect(screen, float32(x+12), float32(y+20), 150, 6, color.RGBA{R: 30, G: 34, B: 40, A: 255}, false)
		vector.FillRect(screen, float32(x+12), float32(y+20), 150*float32(p.Intensity()), 6, palette.Owner(p.ID()), false)
	}
	ebitenutil.DebugPrintAt(screen, "1-9 player speed  P pause  ,/. speed  R restart  H hud  click inspect", borderWidth, top+70)
}

func (g *Game) drawBanner(screen *ebiten.Image, ph sim.Phase) {
	msg := "PLAYERS WIN"
	if ph == sim.PhaseSlimeWin {
		msg = "THE SLIME WINS"
	}
	remaining := max(0, g.cfg.Sim.RestartDelay-g.sinceDone)
	msg = fmt.Sprintf("%s  (new game in %.0fs)", msg, remaining)
	w := float32(len(msg)*6 + 24)
	x := float32(borderWidth) + (float32(g.boardW)-w)/2
	y := float32(borderWidth) + float32(g.boardH)/2 - 12
	vector.FillRect(screen, x, y, w, 24, color.RGBA{R: 6, G: 8, B: 10, A: 220}, false)
	vector.StrokeRect(screen, x, y, w, 24, 1.0, palette.Owner(sim.EnemyID), false)
	ebitenutil.DebugPrintAt(screen, msg, int(x)+12, int(y)+4)
}

// Layout implements ebiten.Game.
func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// WindowSize returns the unscaled window dimensions.
func (g *Game) WindowSize() (int, int) {
	return g.width, g.height
}
