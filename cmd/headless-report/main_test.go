package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Garsondee/Slime-Siege/internal/sim"
	"github.com/spf13/cobra"
)

func TestParsePlayerKeys(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []sim.KeyState
		wantErr bool
	}{
		{"default script", "fast,slow,stop", []sim.KeyState{sim.KeyFast, sim.KeySlow, sim.KeyStop}, false},
		{"spaces and case", " Fast , SLOW", []sim.KeyState{sim.KeyFast, sim.KeySlow}, false},
		{"empty", "", nil, false},
		{"unknown level", "turbo", nil, true},
		{"too many players", "fast,fast,fast,fast", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parsePlayerKeys(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePlayerKeys(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parsePlayerKeys(%q) = %v, want %v", tt.input, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("slot %d = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestClassifyRun(t *testing.T) {
	win := sim.DefaultWinConfig()
	tests := []struct {
		name string
		rep  sim.SessionReport
		want string
	}{
		{"slime win", sim.SessionReport{Phase: sim.PhaseSlimeWin, Coverage: 0.97}, "slime_win"},
		{"player win", sim.SessionReport{Phase: sim.PhasePlayerWin, Coverage: 0.02}, "player_win"},
		{"slime ahead", sim.SessionReport{Phase: sim.PhasePlaying, Coverage: 0.7}, "undecided_slime_ahead"},
		{"players ahead", sim.SessionReport{Phase: sim.PhasePlaying, Coverage: 0.3}, "undecided_players_ahead"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyRun(&tt.rep, win); got != tt.want {
				t.Errorf("classifyRun() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSummarizeTicks(t *testing.T) {
	if got := summarizeTicks(nil); got != "none" {
		t.Errorf("empty = %q", got)
	}
	if got := summarizeTicks([]int{30, 10, 20}); got != "n=3 min=10 median=20 max=30" {
		t.Errorf("summary = %q", got)
	}
}

func TestFormatAggregate(t *testing.T) {
	all := []runStats{
		{verdict: "slime_win", report: &sim.SessionReport{Coverage: 0.96, DecidedTick: 400,
			Agents: []sim.AgentReport{{ID: 2, Pushes: 3}}}},
		{verdict: "player_win", report: &sim.SessionReport{Coverage: 0.04, DecidedTick: 600,
			Agents: []sim.AgentReport{{ID: 2, Pushes: 5}}}},
	}
	out := formatAggregate(all)
	for _, want := range []string{"slime_win", "player_win", "mean_final_coverage=50.0%", "2=8", "n=2 min=400"} {
		if !strings.Contains(out, want) {
			t.Errorf("aggregate missing %q:\n%s", want, out)
		}
	}
}

func newTestRoot() *cobra.Command {
	root := &cobra.Command{Use: "headless-report", SilenceUsage: true, SilenceErrors: true}
	root.PersistentFlags().String("config", "", "")
	root.PersistentFlags().String("mask", "", "")
	root.PersistentFlags().Int("width", 0, "")
	root.PersistentFlags().Int("height", 0, "")
	root.PersistentFlags().Bool("copy", false, "")
	root.AddCommand(newRunCmd(), newMaskCmd())
	return root
}

func TestRunCmd_SmallBatch(t *testing.T) {
	root := newTestRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--runs", "2", "--ticks", "40", "--width", "40", "--height", "16"})
	if err := root.Execute(); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	report := out.String()
	for _, want := range []string{"grid=40x16 runs=2", "run 1", "run 2", "seed=42", "seed=43", "=== Aggregate (2 runs) ==="} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestRunCmd_RejectsBadArgs(t *testing.T) {
	root := newTestRoot()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--runs", "0"})
	if err := root.Execute(); err == nil {
		t.Error("expected error for --runs 0")
	}
}

func TestMaskCmd(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			c := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			if y >= 6 { // bottom two rows of the image are walls
				c = color.NRGBA{R: 200, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	path := filepath.Join(t.TempDir(), "mask.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	f.Close()

	root := newTestRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"mask", path, "--width", "8", "--height", "8", "--preview", "8"})
	if err := root.Execute(); err != nil {
		t.Fatalf("mask failed: %v", err)
	}
	report := out.String()
	if !strings.Contains(report, "walls=16 (25.0%)") {
		t.Errorf("unexpected wall stats:\n%s", report)
	}
	lines := strings.Split(strings.TrimSpace(report), "\n")
	if last := lines[len(lines)-1]; last != "########" {
		t.Errorf("bottom preview row should be walls, got %q", last)
	}

	root = newTestRoot()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"mask"})
	if err := root.Execute(); err == nil {
		t.Error("expected error without a mask")
	}
}
