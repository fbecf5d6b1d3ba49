package sim

import (
	"fmt"
	"sort"
	"strings"
)

// CoverageSample is the enemy coverage at one tick.
type CoverageSample struct {
	Tick     int
	Coverage float64
}

// AgentReport captures one agent at the end of a session.
type AgentReport struct {
	ID     uint8
	Enemy  bool
	State  AgentState
	Owned  int
	Waves  int
	Pushes int // contests won, from the event log
}

// SessionReport summarises one session for headless runs.
type SessionReport struct {
	Seed        int64
	Ticks       int
	GameTime    float64
	Phase       Phase
	DecidedTick int // -1 while undecided
	Coverage    float64
	PeakCov     float64
	Samples     []CoverageSample
	Agents      []AgentReport
	EventCounts map[EventKind]int
}

// Recorder samples coverage periodically during a run.
type Recorder struct {
	every   int
	samples []CoverageSample
	peak    float64
}

// NewRecorder samples every n ticks (n<=0 means every tick).
func NewRecorder(n int) *Recorder {
	if n <= 0 {
		n = 1
	}
	return &Recorder{every: n}
}

// Collect records the session state if the tick falls on the sample period.
func (r *Recorder) Collect(s *Simulation) {
	cov := s.Coverage()
	if cov > r.peak {
		r.peak = cov
	}
	if s.Tick()%r.every == 0 {
		r.samples = append(r.samples, CoverageSample{Tick: s.Tick(), Coverage: cov})
	}
}

// Summarize builds the final report for a session.
func Summarize(seed int64, s *Simulation, log *EventLog, rec *Recorder) *SessionReport {
	rep := &SessionReport{
		Seed:        seed,
		Ticks:       s.Tick(),
		GameTime:    s.GameTime(),
		Phase:       s.Phase(),
		DecidedTick: -1,
		Coverage:    s.Coverage(),
		EventCounts: make(map[EventKind]int),
	}
	if rec != nil {
		rep.Samples = rec.samples
		rep.PeakCov = rec.peak
	}
	pushes := map[uint8]int{}
	if log != nil {
		for _, e := range log.Entries() {
			rep.EventCounts[e.Kind]++
			if e.Kind == EventPlayerPushedEnemy || e.Kind == EventPlayerPushedPlayer {
				pushes[e.Agent]++
			}
		}
		rep.DecidedTick = log.FirstTick(EventPhaseChanged)
	}
	for _, a := range s.Agents() {
		rep.Agents = append(rep.Agents, AgentReport{
			ID:     a.ID(),
			Enemy:  a.IsEnemy(),
			State:  a.State(),
			Owned:  a.OwnedCount(),
			Waves:  a.HistoryLen(),
			Pushes: pushes[a.ID()],
		})
	}
	return rep
}

// Format renders the report as plain text.
func (r *SessionReport) Format() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "--- Session seed=%d ---\n", r.Seed)
	fmt.Fprintf(&sb, "ticks=%d game_time=%.1fs phase=%s decided_tick=%d\n", r.Ticks, r.GameTime, r.Phase, r.DecidedTick)
	fmt.Fprintf(&sb, "coverage: final=%.1f%% peak=%.1f%%\n", r.Coverage*100, r.PeakCov*100)
	for _, a := range r.Agents {
		label := fmt.Sprintf("P%d", a.ID-FirstPlayerID+1)
		if a.Enemy {
			label = "E"
		}
		fmt.Fprintf(&sb, "  %-2s id=%d state=%-10s owned=%-6d waves=%-5d pushes_won=%d\n",
			label, a.ID, a.State, a.Owned, a.Waves, a.Pushes)
	}
	if len(r.EventCounts) > 0 {
		kinds := make([]EventKind, 0, len(r.EventCounts))
		for k := range r.EventCounts {
			kinds = append(kinds, k)
		}
		sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
		parts := make([]string, 0, len(kinds))
		for _, k := range kinds {
			parts = append(parts, fmt.Sprintf("%s=%d", k, r.EventCounts[k]))
		}
		fmt.Fprintf(&sb, "events: %s\n", strings.Join(parts, " "))
	}
	if n := len(r.Samples); n > 0 {
		sb.WriteString("coverage_trace:")
		step := max(1, n/10)
		for i := 0; i < n; i += step {
			fmt.Fprintf(&sb, " T%d=%.1f%%", r.Samples[i].Tick, r.Samples[i].Coverage*100)
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
