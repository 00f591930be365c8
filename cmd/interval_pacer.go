package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/rivo/tview"
	"gopkg.in/natefinch/lumberjack.v2"

	"intervalpacer/internal/config"
	"intervalpacer/internal/notify"
	"intervalpacer/internal/session"
	"intervalpacer/internal/ui"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// The terminal belongs to the curses UI, so logs go to a rotating file
	// and, via a channel writer, to the dashboard's log pane.
	uiLogWriter := ui.NewChannelWriter(256)
	logger := log.New(io.MultiWriter(
		&lumberjack.Logger{
			Filename:   cfg.LogPath,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		},
		uiLogWriter,
	), "", log.LstdFlags)

	logger.Printf("main: interval pacer starting, logging to %s", cfg.LogPath)

	sink := notify.NewLocalSink(logger)
	manager := session.NewManager(session.NewManagerArg{
		Clock:        session.SystemClock(),
		Reminders:    session.NewReminderDispatcher(sink, cfg.ReminderSound, logger),
		Cue:          ui.NewLogCue(logger),
		Display:      ui.NewLogDisplay(logger),
		Logger:       logger,
		TickInterval: cfg.TickInterval,
	})

	prefs := ui.NewPrefs(logger)
	if prefs.LastPreset() == "" && cfg.DefaultPreset != "" {
		if _, ok := session.PresetByName(cfg.DefaultPreset); ok {
			prefs.SetLastPreset(cfg.DefaultPreset)
		} else {
			logger.Printf("main: unknown preset %q in config, ignoring", cfg.DefaultPreset)
		}
	}

	dashboard := ui.NewDashboard(ui.NewDashboardArg{
		Logger:   logger,
		App:      tview.NewApplication(),
		Manager:  manager,
		Prefs:    prefs,
		Presets:  session.AllPresets,
		LogLines: uiLogWriter.Lines(),
	})

	runErr := dashboard.Run()

	dashboard.Stop()
	manager.Shutdown()
	logger.Printf("main: interval pacer stopped")

	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		os.Exit(1)
	}
}
