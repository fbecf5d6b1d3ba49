package game

import (
	"fmt"
	"image/color"

	"github.com/Garsondee/Slime-Siege/internal/palette"
	"github.com/Garsondee/Slime-Siege/internal/sim"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

const (
	feedPanelWidth = 300
	feedMaxEntries = 60
	feedLineHeight = 14
)

// FeedEntry is a single line in the event feed.
type FeedEntry struct {
	Tick    int
	Agent   uint8 // 0 for session notes
	Message string
}

// EventFeed is a ring buffer of recent session events rendered beside the
// board. It implements sim.EventSink.
type EventFeed struct {
	entries []FeedEntry
	head    int
	count   int
}

// NewEventFeed creates a feed with a fixed capacity.
func NewEventFeed() *EventFeed {
	return &EventFeed{
		entries: make([]FeedEntry, feedMaxEntries),
	}
}

// Add appends an entry to the feed.
func (f *EventFeed) Add(tick int, agent uint8, msg string) {
	f.entries[f.head] = FeedEntry{Tick: tick, Agent: agent, Message: msg}
	f.head = (f.head + 1) % feedMaxEntries
	if f.count < feedMaxEntries {
		f.count++
	}
}

// HandleEvent implements sim.EventSink. Anchor freezes are too frequent to
// be worth a line.
func (f *EventFeed) HandleEvent(e sim.Event) {
	var msg string
	switch e.Kind {
	case sim.EventPlayerPushedEnemy:
		msg = fmt.Sprintf("%s pushed the slime at %s", agentLabel(e.Agent), e.At)
	case sim.EventPlayerPushedPlayer:
		msg = fmt.Sprintf("%s pushed %s", agentLabel(e.Agent), agentLabel(e.Other))
	case sim.EventPlayerTookEnemyCell:
		msg = fmt.Sprintf("%s took slime ground", agentLabel(e.Agent))
	case sim.EventAgentRespawned:
		msg = fmt.Sprintf("%s respawned at %s", agentLabel(e.Agent), e.At)
	case sim.EventAnchorUnfreeze:
		msg = fmt.Sprintf("%s wiped out", agentLabel(e.Agent))
	case sim.EventPhaseChanged:
		msg = "game over: " + e.Phase.String()
	default:
		return
	}
	f.Add(e.Tick, e.Agent, msg)
}

// Recent returns entries in chronological order (oldest first).
func (f *EventFeed) Recent() []FeedEntry {
	result := make([]FeedEntry, f.count)
	for i := 0; i < f.count; i++ {
		idx := (f.head - f.count + i + feedMaxEntries) % feedMaxEntries
		result[i] = f.entries[idx]
	}
	return result
}

// Draw renders the feed panel at panelX.
func (f *EventFeed) Draw(screen *ebiten.Image, panelX int, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, float32(feedPanelWidth), float32(panelH), color.RGBA{R: 10, G: 12, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 60, B: 70, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, float32(feedPanelWidth), 16, color.RGBA{R: 20, G: 26, B: 32, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENTS", panelX+8, 0)

	entries := f.Recent()
	maxVisible := (panelH - 24) / feedLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}

	y := 20
	for i, e := range entries {
		if i >= len(entries)-3 {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(feedPanelWidth-4), float32(feedLineHeight), color.RGBA{R: 30, G: 36, B: 44, A: 160}, false)
		}
		if e.Agent != 0 {
			vector.FillRect(screen, float32(panelX+5), float32(y+4), 3, 6, palette.Owner(e.Agent), false)
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%5d %s", e.Tick, e.Message), panelX+12, y)
		y += feedLineHeight
	}
}

// agentLabel names an agent for display: P1..P3 or SLIME.
func agentLabel(id uint8) string {
	if sim.IsEnemyID(id) {
		return "SLIME"
	}
	if sim.IsPlayerID(id) {
		return fmt.Sprintf("P%d", id-sim.FirstPlayerID+1)
	}
	return "--"
}
