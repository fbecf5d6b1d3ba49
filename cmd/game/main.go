package main

import (
	"flag"
	"log"
	"os"

	"github.com/Garsondee/Slime-Siege/internal/config"
	"github.com/Garsondee/Slime-Siege/internal/game"
	"github.com/Garsondee/Slime-Siege/internal/logging"
	"github.com/hajimehoshi/ebiten/v2"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	maskPath := flag.String("mask", "", "obstacle mask image (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *maskPath != "" {
		cfg.Grid.Mask = *maskPath
	}
	logger := logging.NewLogger(cfg.Logging.Level, os.Stderr)

	g, err := game.New(cfg, logger)
	if err != nil {
		log.Fatal(err)
	}
	w, h := g.WindowSize()
	ebiten.SetWindowTitle("Slime Siege")
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	if err := ebiten.RunGame(g); err != nil {
		log.Fatal(err)
	}
}
