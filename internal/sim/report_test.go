package sim

import (
	"strings"
	"testing"
)

func TestRecorder_SamplesEveryN(t *testing.T) {
	ts := NewTestSim(WithHeldIntensity(EnemyID, 1))
	ts.Recorder = NewRecorder(5)
	ts.RunTicks(20)

	rep := ts.Report()
	if len(rep.Samples) != 4 {
		t.Fatalf("samples = %d, want 4", len(rep.Samples))
	}
	for i, s := range rep.Samples {
		if s.Tick != (i+1)*5 {
			t.Errorf("sample %d at tick %d", i, s.Tick)
		}
		if s.Coverage > rep.PeakCov {
			t.Errorf("sample %.3f above peak %.3f", s.Coverage, rep.PeakCov)
		}
	}
}

func TestSummarize(t *testing.T) {
	ts := NewTestSim(
		WithGridSize(5, 5),
		WithConfig(func(c *Config) {
			c.PlayerCount = 1
			c.PlayerSeeds = []Coord{{2, 0}}
			c.PlayerSeedAtStart = true
			c.Push = PushConfig{PlayerVsEnemy: 1}
		}),
		WithSimOption(WithEnemyCells(fillRows(5, 1, 5)...)),
		WithHeldIntensity(FirstPlayerID, 1),
	)
	ts.RunTicks(4)
	rep := ts.Report()

	if rep.Seed != 1 || rep.Ticks != 4 || rep.DecidedTick != -1 {
		t.Errorf("header = seed %d ticks %d decided %d", rep.Seed, rep.Ticks, rep.DecidedTick)
	}
	if len(rep.Agents) != 2 || rep.Agents[0].ID != FirstPlayerID || !rep.Agents[1].Enemy {
		t.Fatalf("agents = %+v", rep.Agents)
	}
	if rep.Agents[0].Pushes != ts.Log.Count(EventPlayerPushedEnemy) || rep.Agents[0].Pushes == 0 {
		t.Errorf("player pushes = %d, log has %d", rep.Agents[0].Pushes, ts.Log.Count(EventPlayerPushedEnemy))
	}

	out := rep.Format()
	for _, want := range []string{"--- Session seed=1 ---", "P1 id=2", "E  id=5", "player_pushed_enemy="} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}
