package sim

import (
	"fmt"
	"strings"
)

// EventKind identifies a discrete notification produced by the simulation.
type EventKind int

const (
	EventPlayerPushedEnemy   EventKind = iota // a player won a contest against the enemy
	EventPlayerPushedPlayer                   // a player won a contest against another player
	EventPlayerTookEnemyCell                  // a player claimed a cell the enemy held
	EventAnchorFreeze                         // a player's anchor should stop moving
	EventAnchorUnfreeze                       // a player died; its anchor may move again
	EventAgentRespawned                       // a dead player reappeared
	EventPhaseChanged                         // the win evaluator ended the game
)

func (k EventKind) String() string {
	switch k {
	case EventPlayerPushedEnemy:
		return "player_pushed_enemy"
	case EventPlayerPushedPlayer:
		return "player_pushed_player"
	case EventPlayerTookEnemyCell:
		return "player_took_enemy_cell"
	case EventAnchorFreeze:
		return "anchor_freeze"
	case EventAnchorUnfreeze:
		return "anchor_unfreeze"
	case EventAgentRespawned:
		return "agent_respawned"
	case EventPhaseChanged:
		return "phase_changed"
	default:
		return "unknown"
	}
}

// Event is one notification. Agent is the acting agent, Other the agent that
// lost a cell (push events only).
type Event struct {
	Tick  int
	Kind  EventKind
	Agent uint8
	Other uint8
	At    Coord
	Phase Phase
}

// String formats the event as a fixed-width log line.
//
//	[T=042] A2  player_took_enemy_cell   (13,7)
func (e Event) String() string {
	detail := e.At.String()
	if e.Kind == EventPhaseChanged {
		detail = e.Phase.String()
	}
	return fmt.Sprintf("[T=%03d] A%-2d %-24s %s", e.Tick, e.Agent, e.Kind, detail)
}

// EventSink consumes simulation events. Sinks are called synchronously at the
// end of each tick and must not block.
type EventSink interface {
	HandleEvent(Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(Event)

func (f EventSinkFunc) HandleEvent(e Event) { f(e) }

// MultiSink fans events out to several sinks in order.
type MultiSink []EventSink

func (ms MultiSink) HandleEvent(e Event) {
	for _, s := range ms {
		if s != nil {
			s.HandleEvent(e)
		}
	}
}

// eventKey identifies the dedupe slot for an event within one tick.
type eventKey struct {
	kind  EventKind
	agent uint8
}

// tickEvents buffers notifications raised during a tick so each kind fires at
// most once. Push notifications dedupe per kind; anchor and respawn events
// dedupe per agent.
type tickEvents struct {
	pending []Event
	seen    map[eventKey]bool
}

func newTickEvents() *tickEvents {
	return &tickEvents{seen: make(map[eventKey]bool)}
}

func (te *tickEvents) raise(e Event) {
	k := eventKey{kind: e.Kind}
	switch e.Kind {
	case EventAnchorFreeze, EventAnchorUnfreeze, EventAgentRespawned:
		k.agent = e.Agent
	}
	if te.seen[k] {
		return
	}
	te.seen[k] = true
	te.pending = append(te.pending, e)
}

// flush stamps the tick number, hands events to sink and resets the buffer.
func (te *tickEvents) flush(tick int, sink EventSink) {
	for i := range te.pending {
		te.pending[i].Tick = tick
		if sink != nil {
			sink.HandleEvent(te.pending[i])
		}
	}
	te.pending = te.pending[:0]
	clear(te.seen)
}

// EventLog records every event it receives. It is unbounded and intended for
// headless runs and tests.
type EventLog struct {
	entries []Event
}

// NewEventLog creates an empty log.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// HandleEvent implements EventSink.
func (el *EventLog) HandleEvent(e Event) {
	el.entries = append(el.entries, e)
}

// Entries returns all recorded events.
func (el *EventLog) Entries() []Event {
	return el.entries
}

// Filter returns events of the given kind.
func (el *EventLog) Filter(kind EventKind) []Event {
	var out []Event
	for _, e := range el.entries {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// FilterAgent returns events raised by a specific agent.
func (el *EventLog) FilterAgent(id uint8) []Event {
	var out []Event
	for _, e := range el.entries {
		if e.Agent == id {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of kind were recorded.
func (el *EventLog) Count(kind EventKind) int {
	n := 0
	for _, e := range el.entries {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// LastOf returns the most recent event of kind, or false if none.
func (el *EventLog) LastOf(kind EventKind) (Event, bool) {
	for i := len(el.entries) - 1; i >= 0; i-- {
		if el.entries[i].Kind == kind {
			return el.entries[i], true
		}
	}
	return Event{}, false
}

// FirstTick returns the tick of the first event of kind, or -1.
func (el *EventLog) FirstTick(kind EventKind) int {
	for _, e := range el.entries {
		if e.Kind == kind {
			return e.Tick
		}
	}
	return -1
}

// Format returns the full log as one string for t.Log output.
func (el *EventLog) Format() string {
	var sb strings.Builder
	for _, e := range el.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
