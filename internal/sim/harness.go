package sim

import (
	"fmt"
	"time"
)

// TestSim is a headless harness for scenarios and tools. It builds a grid
// from options, wires an EventLog and a Recorder, and runs whole ticks.
type TestSim struct {
	*Simulation
	Log      *EventLog
	Recorder *Recorder
	Seed     int64

	width, height int
	walls         []Coord
	cfg           Config
	opts          []Option
	intensity     map[uint8]float64
}

// simOptionKind controls the pass in which an option is applied.
type simOptionKind int

const (
	simOptInfra   simOptionKind = iota // grid size, walls, config, seed
	simOptRuntime                      // applied after the simulation exists
)

// SimOption is a builder function applied to a TestSim during construction.
type SimOption struct {
	kind simOptionKind
	fn   func(*TestSim)
}

// WithGridSize sets the board dimensions.
func WithGridSize(w, h int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.width, ts.height = w, h
	}}
}

// WithWallRect marks a rectangle of wall cells (x, y is the bottom-left corner).
func WithWallRect(x, y, w, h int) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		for yy := y; yy < y+h; yy++ {
			for xx := x; xx < x+w; xx++ {
				ts.walls = append(ts.walls, Coord{xx, yy})
			}
		}
	}}
}

// WithTestSeed sets the RNG seed for deterministic runs.
func WithTestSeed(seed int64) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.Seed = seed
	}}
}

// WithConfig edits the session config before the simulation is built.
func WithConfig(edit func(*Config)) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		edit(&ts.cfg)
	}}
}

// WithSimOption forwards a constructor Option.
func WithSimOption(o Option) SimOption {
	return SimOption{simOptInfra, func(ts *TestSim) {
		ts.opts = append(ts.opts, o)
	}}
}

// WithHeldIntensity pins an agent's intensity for every tick.
func WithHeldIntensity(id uint8, v float64) SimOption {
	return SimOption{simOptRuntime, func(ts *TestSim) {
		ts.intensity[id] = v
		ts.SetIntensity(id, v)
	}}
}

// NewTestSim constructs a TestSim in two ordered passes: infrastructure
// (grid, config, seed), then runtime settings on the built simulation.
// It panics on a malformed scenario.
func NewTestSim(opts ...SimOption) *TestSim {
	ts := &TestSim{
		width:     40,
		height:    20,
		cfg:       DefaultConfig(),
		Seed:      1,
		Log:       NewEventLog(),
		Recorder:  NewRecorder(1),
		intensity: make(map[uint8]float64),
	}
	for _, o := range opts {
		if o.kind == simOptInfra {
			o.fn(ts)
		}
	}

	grid, err := NewGridMap(ts.width, ts.height)
	if err != nil {
		panic(fmt.Sprintf("test sim: %v", err))
	}
	for _, c := range ts.walls {
		if grid.Contains(c) {
			grid.setWall(c.X, c.Y)
		}
	}

	simOpts := append([]Option{WithSeed(ts.Seed), WithEventSink(ts.Log)}, ts.opts...)
	ts.Simulation, err = New(ts.cfg, grid, simOpts...)
	if err != nil {
		panic(fmt.Sprintf("test sim: %v", err))
	}

	for _, o := range opts {
		if o.kind == simOptRuntime {
			o.fn(ts)
		}
	}
	return ts
}

// RunTicks advances n ticks, re-applying held intensities before each one.
func (ts *TestSim) RunTicks(n int) {
	for i := 0; i < n; i++ {
		for id, v := range ts.intensity {
			ts.SetIntensity(id, v)
		}
		ts.Step()
		ts.Recorder.Collect(ts.Simulation)
	}
}

// RunFor advances by wall-clock style elapsed time in frame-sized steps.
func (ts *TestSim) RunFor(total, frame time.Duration) int {
	fired := 0
	for elapsed := time.Duration(0); elapsed < total; elapsed += frame {
		for id, v := range ts.intensity {
			ts.SetIntensity(id, v)
		}
		n := ts.Advance(frame)
		if n > 0 {
			ts.Recorder.Collect(ts.Simulation)
		}
		fired += n
	}
	return fired
}

// Report summarises the run so far.
func (ts *TestSim) Report() *SessionReport {
	return Summarize(ts.Seed, ts.Simulation, ts.Log, ts.Recorder)
}
