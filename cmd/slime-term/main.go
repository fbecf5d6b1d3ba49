package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/Garsondee/Slime-Siege/internal/config"
	"github.com/Garsondee/Slime-Siege/internal/logging"
	"github.com/Garsondee/Slime-Siege/internal/sim"
	"github.com/Garsondee/Slime-Siege/internal/term"
	"github.com/gdamore/tcell/v2"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	maskPath := flag.String("mask", "", "obstacle mask image (overrides config)")
	mute := flag.Bool("mute", false, "disable audio cues")
	logPath := flag.String("log", "", "write logs to this file (the terminal is in use)")
	flag.Parse()

	if err := run(*configPath, *maskPath, *logPath, *mute); err != nil {
		fmt.Fprintf(os.Stderr, "slime-term: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, maskPath, logPath string, mute bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if maskPath != "" {
		cfg.Grid.Mask = maskPath
	}

	var logOut io.Writer = io.Discard // the screen owns stderr
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // #nosec G304 -- operator-supplied path
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	logger := logging.NewLogger(cfg.Logging.Level, logOut)

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	sinks := []sim.EventSink{logging.EventSink(logger)}
	if !mute {
		cues := term.NewCues(logger)
		defer cues.Close()
		sinks = append(sinks, cues)
	}

	app, err := term.NewApp(screen, cfg, logger, sinks...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := app.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
