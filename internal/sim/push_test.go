package sim

import (
	"math/rand"
	"testing"
)

func TestPushResolver_GuaranteeAfterFails(t *testing.T) {
	cfg := PushConfig{GuaranteeAfterFails: 3} // every roll fails
	pr := NewPushResolver(cfg, rand.New(rand.NewSource(1))) // #nosec G404 -- test only
	c := Coord{4, 4}

	for i := 1; i <= 3; i++ {
		if pr.TryPush(c, FirstPlayerID, EnemyID, 1) {
			t.Fatalf("attempt %d succeeded with zero chance", i)
		}
		if got := pr.FailCount(c); got != i {
			t.Fatalf("after attempt %d fail count = %d", i, got)
		}
	}
	if !pr.TryPush(c, FirstPlayerID, EnemyID, 1) {
		t.Fatal("attempt 4 should be guaranteed")
	}
	if got := pr.FailCount(c); got != 0 {
		t.Errorf("counter should reset after success, got %d", got)
	}
}

func TestPushResolver_CountersPerCoordinate(t *testing.T) {
	pr := NewPushResolver(PushConfig{GuaranteeAfterFails: 5}, rand.New(rand.NewSource(1))) // #nosec G404 -- test only
	a, b := Coord{1, 1}, Coord{2, 1}
	pr.TryPush(a, EnemyID, FirstPlayerID, 0)
	pr.TryPush(a, FirstPlayerID+1, FirstPlayerID, 0) // different attacker, same cell
	pr.TryPush(b, EnemyID, FirstPlayerID, 0)
	if pr.FailCount(a) != 2 || pr.FailCount(b) != 1 {
		t.Errorf("fail counts a=%d b=%d, want 2 and 1", pr.FailCount(a), pr.FailCount(b))
	}
}

func TestPushResolver_NoGuaranteeNoCounter(t *testing.T) {
	pr := NewPushResolver(PushConfig{}, rand.New(rand.NewSource(1))) // #nosec G404 -- test only
	c := Coord{0, 0}
	for i := 0; i < 20; i++ {
		if pr.TryPush(c, FirstPlayerID, EnemyID, 1) {
			t.Fatal("zero chance without guarantee must never succeed")
		}
	}
	if pr.FailCount(c) != 0 {
		t.Errorf("counter should stay 0 when the guarantee is disabled, got %d", pr.FailCount(c))
	}
}

func TestPushResolver_CertainWin(t *testing.T) {
	cfg := DefaultPushConfig()
	cfg.PlayerVsEnemy = 1
	pr := NewPushResolver(cfg, rand.New(rand.NewSource(1))) // #nosec G404 -- test only
	for i := 0; i < 20; i++ {
		if !pr.TryPush(Coord{i, 0}, FirstPlayerID, EnemyID, 0) {
			t.Fatal("chance 1 must always succeed")
		}
	}
}

func TestPushResolver_Chance(t *testing.T) {
	pr := NewPushResolver(DefaultPushConfig(), rand.New(rand.NewSource(1))) // #nosec G404 -- test only
	tests := []struct {
		name      string
		attacker  uint8
		defender  uint8
		intensity float64
		want      float64
	}{
		{"enemy ignores intensity", EnemyID, FirstPlayerID, 1, 0.3},
		{"player vs enemy idle", FirstPlayerID, EnemyID, 0, 0.4},
		{"player vs enemy full", FirstPlayerID, EnemyID, 1, 0.7},
		{"player vs player half", FirstPlayerID, FirstPlayerID + 1, 0.5, 0.35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pr.Chance(tt.attacker, tt.defender, tt.intensity)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Chance = %v, want %v", got, tt.want)
			}
		})
	}
}
