package ui

import (
	"log"
	"time"

	"intervalpacer/internal/session"
)

// LogCue renders phase-change cues as log lines. The cmd logger fans out to
// the dashboard's log pane, so cues show up there as well as in the log file.
type LogCue struct {
	logger *log.Logger
}

func NewLogCue(logger *log.Logger) *LogCue {
	if logger == nil {
		panic("LogCue: logger cannot be nil")
	}
	return &LogCue{logger: logger}
}

func (c *LogCue) OnPhaseChanged(kind session.PhaseKind, interval int) {
	if interval > 0 {
		c.logger.Printf("Cue: >>> %s %d <<<", kind, interval)
		return
	}
	c.logger.Printf("Cue: >>> %s <<<", kind)
}

// LogDisplay is the coarse background status display: one log line per
// render, on phase changes and step milestones rather than every tick.
type LogDisplay struct {
	logger *log.Logger
}

func NewLogDisplay(logger *log.Logger) *LogDisplay {
	if logger == nil {
		panic("LogDisplay: logger cannot be nil")
	}
	return &LogDisplay{logger: logger}
}

func (d *LogDisplay) Render(status session.DisplayStatus) {
	label := session.ScheduledPhase{Kind: status.Phase, Interval: status.Interval}.Label()
	d.logger.Printf("Display: %s, %s left, %.0f%% done, %d steps",
		label, status.Remaining.Round(time.Second), status.Progress*100, status.StepCount)
}
