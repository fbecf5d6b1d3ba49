package term

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Garsondee/Slime-Siege/internal/sim"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// cueGap is the minimum spacing between two cues of the same kind.
const cueGap = 150 * time.Millisecond

// cue is a short sine blip.
type cue struct {
	freq float64
	dur  time.Duration
}

// cueFor picks the blip for an event kind.
func cueFor(k sim.EventKind) (cue, bool) {
	switch k {
	case sim.EventPlayerPushedEnemy:
		return cue{freq: 880, dur: 40 * time.Millisecond}, true
	case sim.EventPlayerPushedPlayer:
		return cue{freq: 660, dur: 40 * time.Millisecond}, true
	case sim.EventAgentRespawned:
		return cue{freq: 523, dur: 90 * time.Millisecond}, true
	case sim.EventAnchorUnfreeze:
		return cue{freq: 196, dur: 200 * time.Millisecond}, true
	case sim.EventPhaseChanged:
		return cue{freq: 330, dur: 600 * time.Millisecond}, true
	default:
		return cue{}, false
	}
}

// Cues plays audio blips for session events. A Cues whose speaker failed to
// initialise is silent; the game runs without sound.
type Cues struct {
	mu      sync.Mutex
	enabled bool
	last    map[sim.EventKind]time.Time
	now     func() time.Time
}

// NewCues initialises the speaker. Failure is logged, not returned.
func NewCues(logger *slog.Logger) *Cues {
	c := &Cues{last: make(map[sim.EventKind]time.Time), now: time.Now}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		logger.Warn("audio disabled", "err", err)
		return c
	}
	c.enabled = true
	return c
}

// HandleEvent implements sim.EventSink.
func (c *Cues) HandleEvent(e sim.Event) {
	cu, ok := cueFor(e.Kind)
	if !ok || !c.ready(e.Kind) {
		return
	}
	c.play(cu)
}

// ready rate-limits cues per kind and reports whether one may play now.
func (c *Cues) ready(k sim.EventKind) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if t, ok := c.last[k]; ok && now.Sub(t) < cueGap {
		return false
	}
	c.last[k] = now
	return c.enabled
}

func (c *Cues) play(cu cue) {
	sine, err := generators.SineTone(sampleRate, cu.freq)
	if err != nil {
		return
	}
	quiet := &effects.Volume{Streamer: beep.Take(sampleRate.N(cu.dur), sine), Base: 2, Volume: -2}
	speaker.Play(quiet)
}

// Close releases the speaker.
func (c *Cues) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enabled {
		speaker.Close()
		c.enabled = false
	}
}
