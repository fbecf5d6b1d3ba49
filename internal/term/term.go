// Package term is the terminal frontend: a tcell board with half-block
// cells, number-row input and optional audio cues.
package term

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Garsondee/Slime-Siege/internal/config"
	"github.com/Garsondee/Slime-Siege/internal/palette"
	"github.com/Garsondee/Slime-Siege/internal/session"
	"github.com/Garsondee/Slime-Siege/internal/sim"
	"github.com/gdamore/tcell/v2"
)

// frameInterval is the redraw and advance period.
const frameInterval = 33 * time.Millisecond

// statusRows is the number of terminal rows under the board.
const statusRows = 3

// App runs sessions on a tcell screen.
type App struct {
	screen  tcell.Screen
	cfg     *config.Config
	builder *session.Builder
	sess    *session.Session
	log     *slog.Logger

	sinceDone float64
	lastEvent string
}

// NewApp builds the first session. Extra sinks (audio cues, trace logging)
// receive every session event.
func NewApp(screen tcell.Screen, cfg *config.Config, logger *slog.Logger, sinks ...sim.EventSink) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &App{screen: screen, cfg: cfg, log: logger}
	sinks = append(sinks, sim.EventSinkFunc(a.noteEvent))
	b, err := session.NewBuilder(cfg, logger, sinks...)
	if err != nil {
		return nil, err
	}
	a.builder = b
	if err := a.restart(); err != nil {
		return nil, err
	}
	return a, nil
}

// Session returns the running session.
func (a *App) Session() *session.Session { return a.sess }

func (a *App) restart() error {
	sess, err := a.builder.Build(a.builder.NextSeed())
	if err != nil {
		return err
	}
	a.sess = sess
	a.sinceDone = 0
	a.lastEvent = fmt.Sprintf("new game, seed %d", sess.Seed)
	return nil
}

func (a *App) noteEvent(e sim.Event) {
	switch e.Kind {
	case sim.EventPhaseChanged:
		a.lastEvent = "game over: " + e.Phase.String()
	case sim.EventAgentRespawned:
		a.lastEvent = fmt.Sprintf("P%d respawned at %s", e.Agent-sim.FirstPlayerID+1, e.At)
	case sim.EventPlayerPushedEnemy:
		a.lastEvent = fmt.Sprintf("P%d pushed the slime", e.Agent-sim.FirstPlayerID+1)
	}
}

// Run polls input and advances the session until ctx ends or the user quits.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	events := make(chan tcell.Event, 64)
	go a.pumpEvents(ctx, events)

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok || !a.HandleEvent(ev) {
				return nil
			}
		case now := <-ticker.C:
			if err := a.Advance(now.Sub(last)); err != nil {
				return err
			}
			last = now
			a.Draw()
		}
	}
}

// pumpEvents forwards screen events until the screen is finalised or ctx
// ends. events is closed only in the first case.
func (a *App) pumpEvents(ctx context.Context, events chan<- tcell.Event) {
	for {
		ev := a.screen.PollEvent()
		if ev == nil {
			close(events)
			return
		}
		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Advance moves the session by dt and restarts it once a decided game has
// been shown for the configured delay.
func (a *App) Advance(dt time.Duration) error {
	a.sess.Advance(dt)
	if !a.sess.Phase().Terminal() {
		return nil
	}
	a.sinceDone += dt.Seconds()
	if a.sinceDone >= a.cfg.Sim.RestartDelay {
		return a.restart()
	}
	return nil
}

// HandleEvent applies one input event. It returns false when the user quits.
func (a *App) HandleEvent(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() != tcell.KeyRune {
			return true
		}
		switch r := ev.Rune(); r {
		case 'q':
			return false
		case 'r':
			if err := a.restart(); err != nil {
				a.log.Error("restart failed", "err", err)
			}
		default:
			if slot, level, ok := session.KeyBinding(r); ok {
				if in := a.sess.Input(slot); in != nil {
					in.SetKey(level)
				}
			}
		}
	case *tcell.EventResize:
		a.screen.Sync()
	}
	return true
}

// Draw renders the board and status lines.
func (a *App) Draw() {
	a.screen.Clear()
	cols, rows := a.screen.Size()
	boardRows := rows - statusRows
	if cols <= 0 || boardRows <= 0 {
		a.screen.Show()
		return
	}

	g := a.sess.Grid()
	for cy := 0; cy < boardRows; cy++ {
		for cx := 0; cx < cols; cx++ {
			top := tcellColor(sampleCell(g, cx, 2*cy, cols, 2*boardRows))
			bottom := tcellColor(sampleCell(g, cx, 2*cy+1, cols, 2*boardRows))
			style := tcell.StyleDefault.Foreground(top).Background(bottom)
			a.screen.SetContent(cx, cy, '▀', nil, style)
		}
	}

	st := a.sess.Status()
	a.drawText(0, boardRows, tcell.StyleDefault, fmt.Sprintf("tick %d  t=%.1fs  slime %.1f%%  %s  seed %d",
		st.Tick, st.GameTime, st.Coverage*100, st.Phase, a.sess.Seed))
	x := 0
	for _, p := range a.sess.Players() {
		c := palette.Owner(p.ID())
		label := fmt.Sprintf("P%d %s %.1f %d  ", p.ID()-sim.FirstPlayerID+1, p.State(), p.Intensity(), p.OwnedCount())
		a.drawText(x, boardRows+1, tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))), label)
		x += len(label)
	}
	a.drawText(0, boardRows+2, tcell.StyleDefault.Dim(true), "1-9 speed  r restart  q quit  | "+a.lastEvent)
	a.screen.Show()
}

func (a *App) drawText(x, y int, style tcell.Style, s string) {
	for _, r := range s {
		a.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

// sampleCell maps sub-cell (sx, sy) of a cols x subRows view onto the grid,
// with sub-row 0 at the top of the board.
func sampleCell(g *sim.GridMap, sx, sy, cols, subRows int) (uint8, uint8) {
	x := sx * g.Width / cols
	y := g.Height - 1 - sy*g.Height/subRows
	return g.Owner(x, y), g.Thickness(x, y)
}

func tcellColor(owner, thickness uint8) tcell.Color {
	c := palette.Cell(owner, thickness)
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
