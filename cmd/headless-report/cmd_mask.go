package main

import (
	"fmt"
	"strings"

	"github.com/Garsondee/Slime-Siege/internal/session"
	"github.com/Garsondee/Slime-Siege/internal/sim"
	"github.com/spf13/cobra"
)

func newMaskCmd() *cobra.Command {
	var previewCols int
	cmd := &cobra.Command{
		Use:   "mask [path]",
		Short: "Classify an obstacle mask and print wall statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				cfg.Grid.Mask = args[0]
			}
			if cfg.Grid.Mask == "" {
				return fmt.Errorf("mask: %w", sim.ErrNoMask)
			}
			b, err := session.NewBuilder(cfg, nil)
			if err != nil {
				return err
			}
			g, err := b.Grid()
			if err != nil {
				return err
			}
			return emit(cmd, cmd.OutOrStdout(), formatMask(cfg.Grid.Mask, g, previewCols))
		},
	}
	cmd.Flags().IntVar(&previewCols, "preview", 80, "preview width in characters (0 disables)")
	return cmd
}

// formatMask reports wall coverage overall and per band of rows, followed
// by a downsampled preview with the top of the map first.
func formatMask(path string, g *sim.GridMap, previewCols int) string {
	var b strings.Builder
	walls := g.CountOwned(sim.CellWall)
	total := g.Width * g.Height
	fmt.Fprintf(&b, "mask=%s grid=%dx%d\n", path, g.Width, g.Height)
	fmt.Fprintf(&b, "walls=%d (%.1f%%) growable=%d\n", walls, float64(walls)/float64(total)*100, g.NonWallCount())

	// Top, middle and bottom thirds matter for seeding and spawn trays.
	bands := []struct {
		name   string
		lo, hi int
	}{
		{"bottom", 0, g.Height / 3},
		{"middle", g.Height / 3, 2 * g.Height / 3},
		{"top", 2 * g.Height / 3, g.Height},
	}
	for _, band := range bands {
		n, cells := 0, 0
		for y := band.lo; y < band.hi; y++ {
			for x := 0; x < g.Width; x++ {
				cells++
				if g.IsWall(x, y) {
					n++
				}
			}
		}
		pct := 0.0
		if cells > 0 {
			pct = float64(n) / float64(cells) * 100
		}
		fmt.Fprintf(&b, "  %-6s rows %3d..%-3d walls=%.1f%%\n", band.name, band.lo, band.hi-1, pct)
	}

	if previewCols <= 0 {
		return b.String()
	}
	cols := min(previewCols, g.Width)
	rows := max(1, g.Height*cols/g.Width/2) // terminal cells are about twice as tall as wide
	for r := 0; r < rows; r++ {
		y := g.Height - 1 - r*g.Height/rows
		for c := 0; c < cols; c++ {
			if g.IsWall(c*g.Width/cols, y) {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
