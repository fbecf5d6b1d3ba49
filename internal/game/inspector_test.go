package game

import (
	"strings"
	"testing"

	"github.com/Garsondee/Slime-Siege/internal/config"
	"github.com/Garsondee/Slime-Siege/internal/session"
	"github.com/Garsondee/Slime-Siege/internal/sim"
)

func TestScreenToCell(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Width, cfg.Grid.Height = 10, 5
	g := &Game{cfg: cfg, scale: 2, boardW: 20, boardH: 10}

	tests := []struct {
		mx, my int
		want   sim.Coord
		ok     bool
	}{
		{borderWidth, borderWidth, sim.Coord{X: 0, Y: 4}, true},         // top-left pixel is the top grid row
		{borderWidth + 19, borderWidth + 9, sim.Coord{X: 9, Y: 0}, true}, // bottom-right
		{borderWidth + 5, borderWidth + 4, sim.Coord{X: 2, Y: 3}, true},
		{borderWidth - 1, borderWidth, sim.Coord{}, false},
		{borderWidth + 20, borderWidth, sim.Coord{}, false},
	}
	for _, tt := range tests {
		got, ok := g.screenToCell(tt.mx, tt.my)
		if ok != tt.ok || got != tt.want {
			t.Errorf("screenToCell(%d,%d) = %v,%v want %v,%v", tt.mx, tt.my, got, ok, tt.want, tt.ok)
		}
	}

	if !g.handleInspectorClick(borderWidth, borderWidth) || !g.inspector.active {
		t.Error("click on the board should select a cell")
	}
	g.handleInspectorClick(0, 0)
	if g.inspector.active {
		t.Error("click off the board should deselect")
	}
}

func inspectSession(t *testing.T) *session.Session {
	t.Helper()
	cfg := config.Default()
	cfg.Grid.Width, cfg.Grid.Height = 20, 12
	cfg.Players.Count = 1
	cfg.Players.Seeds = []sim.Coord{{X: 5, Y: 0}}
	cfg.Players.SeedAtStart = true
	cfg.Trays = nil
	b, err := session.NewBuilder(cfg, nil)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	s, err := b.Build(3)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return s
}

func TestInspectCurated(t *testing.T) {
	s := inspectSession(t)

	lines := strings.Join(inspectCurated(s, sim.Coord{X: 5, Y: 0}), "\n")
	for _, want := range []string{"owner: P1", "-- P1 --", "cells: 1  waves: 1"} {
		if !strings.Contains(lines, want) {
			t.Errorf("curated view missing %q:\n%s", want, lines)
		}
	}

	free := inspectCurated(s, sim.Coord{X: 5, Y: 1})
	if len(free) != 1 || !strings.HasPrefix(free[0], "owner: free") {
		t.Errorf("free cell view = %v", free)
	}
	if off := inspectCurated(s, sim.Coord{X: -1, Y: 0}); off[0] != "off the board" {
		t.Errorf("off-board view = %v", off)
	}
}

func TestInspectRaw_MarksOwner(t *testing.T) {
	s := inspectSession(t)
	lines := inspectRaw(s, sim.Coord{X: 5, Y: 0})
	if !strings.HasPrefix(lines[0], "cell=(5,0) tick=0 seed=3") {
		t.Errorf("header = %q", lines[0])
	}
	marked := 0
	for _, l := range lines {
		if strings.HasPrefix(l, "*") {
			marked++
			if !strings.HasPrefix(l, "*A2 ") {
				t.Errorf("wrong agent marked: %q", l)
			}
		}
	}
	if marked != 1 {
		t.Errorf("expected exactly one owner line, got %d:\n%s", marked, strings.Join(lines, "\n"))
	}
}
