package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/Garsondee/Slime-Siege/internal/config"
	"github.com/Garsondee/Slime-Siege/internal/logging"
	"github.com/Garsondee/Slime-Siege/internal/session"
	"github.com/Garsondee/Slime-Siege/internal/sim"
	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "headless-report",
		Short: "Run slime sessions without a window and report on them",
		Long: `headless-report plays batches of seeded sessions with scripted player
input and prints per-run and aggregate outcomes. It also inspects
obstacle masks.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "path to a YAML config file")
	rootCmd.PersistentFlags().String("mask", "", "obstacle mask image (overrides config)")
	rootCmd.PersistentFlags().Int("width", 0, "grid width (overrides config)")
	rootCmd.PersistentFlags().Int("height", 0, "grid height (overrides config)")
	rootCmd.PersistentFlags().Bool("copy", false, "also copy the report to the clipboard")

	rootCmd.AddCommand(
		newRunCmd(),
		newMaskCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig applies the persistent flag overrides on top of the config file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if mask, _ := cmd.Flags().GetString("mask"); mask != "" {
		cfg.Grid.Mask = mask
	}
	if w, _ := cmd.Flags().GetInt("width"); w > 0 {
		cfg.Grid.Width = w
	}
	if h, _ := cmd.Flags().GetInt("height"); h > 0 {
		cfg.Grid.Height = h
	}
	return cfg, cfg.Validate()
}

// emit writes the report and optionally mirrors it to the clipboard.
func emit(cmd *cobra.Command, w io.Writer, report string) error {
	fmt.Fprint(w, report)
	if copyOut, _ := cmd.Flags().GetBool("copy"); copyOut {
		if err := clipboard.WriteAll(report); err != nil {
			return fmt.Errorf("copying report: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "report copied to clipboard")
	}
	return nil
}

func newRunCmd() *cobra.Command {
	var (
		runs     int
		ticks    int
		seedBase int64
		seedStep int64
		players  string
		pedal    float64
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Play seeded sessions and report outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs <= 0 {
				return fmt.Errorf("--runs must be > 0")
			}
			if ticks <= 0 {
				return fmt.Errorf("--ticks must be > 0")
			}
			keys, err := parsePlayerKeys(players)
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			events := &runLog{}
			builder, err := session.NewBuilder(cfg, logger, events, logging.EventSink(logger))
			if err != nil {
				return err
			}
			var b strings.Builder
			fmt.Fprintf(&b, "=== Headless Slime Report ===\n")
			fmt.Fprintf(&b, "grid=%dx%d runs=%d ticks=%d seed_base=%d seed_step=%d players=%s\n\n",
				cfg.Grid.Width, cfg.Grid.Height, runs, ticks, seedBase, seedStep, players)

			all := make([]runStats, 0, runs)
			for i := 0; i < runs; i++ {
				seed := seedBase + int64(i)*seedStep
				rs, err := playRun(builder, events, i+1, seed, ticks, keys, pedal)
				if err != nil {
					return err
				}
				all = append(all, rs)
				fmt.Fprintf(&b, "run %d\n", rs.runIndex)
				b.WriteString(rs.report.Format())
				fmt.Fprintf(&b, "verdict: %s\n\n", rs.verdict)
			}
			b.WriteString(formatAggregate(all))
			return emit(cmd, cmd.OutOrStdout(), b.String())
		},
	}
	cmd.Flags().IntVar(&runs, "runs", 5, "number of headless runs")
	cmd.Flags().IntVar(&ticks, "ticks", 3600, "ticks per run")
	cmd.Flags().Int64Var(&seedBase, "seed-base", 42, "base RNG seed for run 1")
	cmd.Flags().Int64Var(&seedStep, "seed-step", 1, "seed increment between runs")
	cmd.Flags().StringVar(&players, "players", "fast,slow,stop", "scripted key level per player slot")
	cmd.Flags().Float64Var(&pedal, "pedal", 0, "constant pedal reading for every player (pedal/both modes)")
	return cmd
}

// runStats is one finished run.
type runStats struct {
	runIndex int
	seed     int64
	report   *sim.SessionReport
	verdict  string
}

// runLog forwards events to the current run's log so one builder, and one
// decoded mask, serves every run.
type runLog struct {
	current *sim.EventLog
}

func (r *runLog) HandleEvent(e sim.Event) {
	if r.current != nil {
		r.current.HandleEvent(e)
	}
}

func playRun(b *session.Builder, events *runLog, runIndex int, seed int64, ticks int, keys []sim.KeyState, pedal float64) (runStats, error) {
	events.current = sim.NewEventLog()
	s, err := b.Build(seed)
	if err != nil {
		return runStats{}, err
	}
	for i, k := range keys {
		if in := s.Input(i); in != nil {
			in.SetKey(k)
			in.SetPedal(pedal)
		}
	}

	cfg := b.Config()
	rec := sim.NewRecorder(int(cfg.Sim.TicksPerSecond))
	for t := 0; t < ticks && !s.Phase().Terminal(); t++ {
		s.Step()
		rec.Collect(s.Simulation)
	}

	rep := sim.Summarize(seed, s.Simulation, events.current, rec)
	return runStats{
		runIndex: runIndex,
		seed:     seed,
		report:   rep,
		verdict:  classifyRun(rep, cfg.Win),
	}, nil
}

// parsePlayerKeys reads a comma list like "fast,slow,stop".
func parsePlayerKeys(s string) ([]sim.KeyState, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []sim.KeyState
	for _, part := range strings.Split(s, ",") {
		switch strings.TrimSpace(strings.ToLower(part)) {
		case "stop":
			out = append(out, sim.KeyStop)
		case "slow":
			out = append(out, sim.KeySlow)
		case "fast":
			out = append(out, sim.KeyFast)
		default:
			return nil, fmt.Errorf("unknown key level %q (valid: stop, slow, fast)", part)
		}
	}
	if len(out) > sim.MaxPlayers {
		return nil, fmt.Errorf("at most %d player levels, got %d", sim.MaxPlayers, len(out))
	}
	return out, nil
}

// classifyRun labels how a run ended. Undecided runs are split by which
// side held the board when time ran out.
func classifyRun(rep *sim.SessionReport, win sim.WinConfig) string {
	switch rep.Phase {
	case sim.PhaseSlimeWin:
		return "slime_win"
	case sim.PhasePlayerWin:
		return "player_win"
	}
	mid := (win.SlimeWinThreshold + win.PlayerWinThreshold) / 2
	if rep.Coverage >= mid {
		return "undecided_slime_ahead"
	}
	return "undecided_players_ahead"
}

func formatAggregate(all []runStats) string {
	verdicts := map[string]int{}
	decided := make([]int, 0, len(all))
	covSum := 0.0
	pushes := map[uint8]int{}
	for _, rs := range all {
		verdicts[rs.verdict]++
		if rs.report.DecidedTick >= 0 {
			decided = append(decided, rs.report.DecidedTick)
		}
		covSum += rs.report.Coverage
		for _, a := range rs.report.Agents {
			pushes[a.ID] += a.Pushes
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "=== Aggregate (%d runs) ===\n", len(all))
	names := make([]string, 0, len(verdicts))
	for k := range verdicts {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		fmt.Fprintf(&b, "  %-24s %d\n", k, verdicts[k])
	}
	if len(all) > 0 {
		fmt.Fprintf(&b, "mean_final_coverage=%.1f%%\n", covSum/float64(len(all))*100)
	}
	fmt.Fprintf(&b, "decided_tick: %s\n", summarizeTicks(decided))
	ids := make([]int, 0, len(pushes))
	for id := range pushes {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d=%d", id, pushes[uint8(id)])) // #nosec G115 -- agent ids fit uint8
	}
	fmt.Fprintf(&b, "pushes_won_by_agent: %s\n", strings.Join(parts, " "))
	return b.String()
}

// summarizeTicks renders n/min/median/max, or "none".
func summarizeTicks(ticks []int) string {
	if len(ticks) == 0 {
		return "none"
	}
	sorted := append([]int(nil), ticks...)
	sort.Ints(sorted)
	return fmt.Sprintf("n=%d min=%d median=%d max=%d", len(sorted), sorted[0], sorted[len(sorted)/2], sorted[len(sorted)-1])
}
