package ui

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"intervalpacer/internal/runutil"
	"intervalpacer/internal/session"
)

// Page names for tview.Pages
const (
	pagePresetSelection  = "preset_selection"
	pageSessionDashboard = "session_dashboard"
)

// Dashboard is the terminal UI: a preset selection page and a live session
// page, with a shared log tail pane on the right. It drives the session
// Manager from key bindings and renders its snapshot events.
type Dashboard struct {
	logger  *log.Logger
	app     *tview.Application
	manager *session.Manager
	prefs   *Prefs
	presets []session.PhaseConfig

	pages    *tview.Pages
	logView  *tview.TextView
	mainFlex *tview.Flex

	presetList    *tview.List
	presetDetails *tview.TextView
	sessionPanel  *tview.TextView

	doneChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewDashboardArg holds the dependencies for a Dashboard. All fields are
// required except LogLines, which may be nil when no log tail is wanted.
type NewDashboardArg struct {
	Logger  *log.Logger
	App     *tview.Application
	Manager *session.Manager
	Prefs   *Prefs
	Presets []session.PhaseConfig
	// LogLines feeds the log tail pane; typically the channel behind a
	// ChannelWriter the application logger fans out to.
	LogLines <-chan string
}

func NewDashboard(arg NewDashboardArg) *Dashboard {
	if arg.Logger == nil {
		panic("Dashboard: logger cannot be nil")
	}
	if arg.App == nil {
		panic("Dashboard: app cannot be nil")
	}
	if arg.Manager == nil {
		panic("Dashboard: manager cannot be nil")
	}
	if arg.Prefs == nil {
		panic("Dashboard: prefs cannot be nil")
	}

	d := &Dashboard{
		logger:   arg.Logger,
		app:      arg.App,
		manager:  arg.Manager,
		prefs:    arg.Prefs,
		presets:  arg.Presets,
		doneChan: make(chan struct{}),
	}

	d.initWidgets()
	d.setupKeyboardHandlers()

	runutil.SafeGoWG(d.logger, &d.wg, d.listenToSnapshots)
	if arg.LogLines != nil {
		runutil.SafeGoWG(d.logger, &d.wg, func() { d.drainLogLines(arg.LogLines) })
	}
	return d
}

func (d *Dashboard) initWidgets() {
	// Note: no SetChangedFunc with app.Draw() on the log view; drawing is
	// done explicitly via QueueUpdateDraw so shutdown can't hang on it.
	d.logView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(false)
	d.logView.SetBorder(true).SetTitle(" Logs ")

	d.initPresetSelectionPage()
	d.initSessionDashboardPage()

	d.pages = tview.NewPages()
	d.pages.AddPage(pagePresetSelection, d.presetSelectionFlex(), true, true)
	d.pages.AddPage(pageSessionDashboard, d.sessionPanel, true, false)

	d.mainFlex = tview.NewFlex().
		AddItem(d.pages, 0, 2, true).
		AddItem(d.logView, 0, 1, false)
}

func (d *Dashboard) initPresetSelectionPage() {
	d.presetList = tview.NewList().
		ShowSecondaryText(true).
		SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			d.startPreset(index)
		}).
		SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
			d.updatePresetDetails(index)
		})
	d.presetList.SetBorder(true).SetTitle(" Presets ")

	d.presetDetails = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	d.presetDetails.SetBorder(true).SetTitle(" Details ")

	lastPreset := d.prefs.LastPreset()
	selectedIdx := 0
	for i, preset := range d.presets {
		d.presetList.AddItem(preset.Name, formatDuration(preset.TotalDuration()), 0, nil)
		if preset.Name == lastPreset {
			selectedIdx = i
		}
	}
	if len(d.presets) > 0 {
		d.presetList.SetCurrentItem(selectedIdx)
		d.updatePresetDetails(selectedIdx)
	}
}

func (d *Dashboard) initSessionDashboardPage() {
	d.sessionPanel = tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	d.sessionPanel.SetBorder(true).SetTitle(" Session ")
	d.sessionPanel.SetText(idleSessionText())
}

func (d *Dashboard) presetSelectionFlex() *tview.Flex {
	instructions := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)
	instructions.SetText("[yellow]Enter[white] Start  |  [yellow]1[white] Presets  |  [yellow]2[white] Session  |  [yellow]Esc[white] Quit")

	listRow := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(d.presetList, 0, 1, true).
		AddItem(d.presetDetails, 0, 1, false)

	return tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(instructions, 2, 0, false).
		AddItem(listRow, 0, 1, true)
}

func (d *Dashboard) updatePresetDetails(index int) {
	if d.presetDetails == nil {
		return
	}
	if index < 0 || index >= len(d.presets) {
		d.presetDetails.SetText("\n  Select a preset to view its structure.\n")
		return
	}
	preset := d.presets[index]
	text := "\n"
	text += fmt.Sprintf("  [yellow]%s[white]\n\n", preset.Name)
	text += fmt.Sprintf("  [gray]Duration:[white] %s\n", formatDuration(preset.TotalDuration()))
	text += fmt.Sprintf("  [gray]Intervals:[white] %d x (%s on / %s off)\n",
		preset.TotalIntervals, formatDuration(preset.ActiveDuration), formatDuration(preset.RecoveryDuration))
	if preset.WarmupEnabled {
		text += fmt.Sprintf("  [gray]Warmup:[white] %s\n", formatDuration(preset.WarmupDuration))
	}
	if preset.CooldownEnabled {
		text += fmt.Sprintf("  [gray]Cooldown:[white] %s\n", formatDuration(preset.CooldownDuration))
	}
	text += "\n  [green]Press Enter to start[white]\n"
	d.presetDetails.SetText(text)
}

func (d *Dashboard) startPreset(index int) {
	if index < 0 || index >= len(d.presets) {
		return
	}
	preset := d.presets[index]
	first, err := d.manager.StartSession(preset)
	if err != nil {
		d.logger.Printf("Dashboard: start %q failed: %v", preset.Name, err)
		return
	}
	d.logger.Printf("Dashboard: started %q, first phase %s", preset.Name, first.Label())
	d.prefs.SetLastPreset(preset.Name)
	d.pages.SwitchToPage(pageSessionDashboard)
}

func (d *Dashboard) setupKeyboardHandlers() {
	d.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEscape {
			d.Stop()
			return nil
		}
		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case '1':
				d.pages.SwitchToPage(pagePresetSelection)
				d.app.SetFocus(d.presetList)
				return nil
			case '2':
				d.pages.SwitchToPage(pageSessionDashboard)
				return nil
			}
		}

		name, _ := d.pages.GetFrontPage()
		if name != pageSessionDashboard {
			return event
		}

		if event.Key() == tcell.KeyRune {
			switch event.Rune() {
			case ' ':
				d.togglePause()
				return nil
			case 's':
				if err := d.manager.SkipPhase(); err != nil {
					d.logger.Printf("Dashboard: skip failed: %v", err)
				}
				return nil
			case 'x':
				if err := d.manager.EndSession(); err != nil {
					d.logger.Printf("Dashboard: end failed: %v", err)
				}
				return nil
			}
		}
		return event
	})
}

func (d *Dashboard) togglePause() {
	switch d.manager.Snapshot().Status {
	case session.StatusRunning:
		if err := d.manager.PauseSession(); err != nil {
			d.logger.Printf("Dashboard: pause failed: %v", err)
		}
	case session.StatusPaused:
		if err := d.manager.ResumeSession(); err != nil {
			d.logger.Printf("Dashboard: resume failed: %v", err)
		}
	}
}

// listenToSnapshots renders every snapshot event onto the session panel.
func (d *Dashboard) listenToSnapshots() {
	snapChan := make(chan session.Snapshot, 8)
	unregister := d.manager.ListenToSnapshot(snapChan)
	defer unregister()

	for {
		select {
		case <-d.doneChan:
			return
		case snap := <-snapChan:
			d.app.QueueUpdateDraw(func() {
				d.sessionPanel.SetText(formatSessionText(snap))
			})
		}
	}
}

// drainLogLines appends application log lines to the log tail pane.
func (d *Dashboard) drainLogLines(lines <-chan string) {
	for {
		select {
		case <-d.doneChan:
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			d.app.QueueUpdateDraw(func() {
				fmt.Fprint(d.logView, line)
			})
		}
	}
}

// Run starts the UI and blocks until it exits.
func (d *Dashboard) Run() error {
	d.app.SetRoot(d.mainFlex, true)
	d.app.SetFocus(d.presetList)
	return d.app.Run()
}

// Stop stops the UI and its listener goroutines. Safe to call multiple times.
func (d *Dashboard) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Printf("Dashboard: stopping")
		close(d.doneChan)
		d.app.Stop()
		d.wg.Wait()
	})
}

func idleSessionText() string {
	text := "\n  [gray]No session running[white]\n\n"
	text += "  Go to preset selection (press 1) and pick a workout.\n"
	return text
}

func formatSessionText(snap session.Snapshot) string {
	switch snap.Status {
	case session.StatusIdle:
		return idleSessionText()
	case session.StatusFinishing, session.StatusEnded:
		text := "\n"
		text += fmt.Sprintf("  [yellow]%s[white]\n\n", snap.Config.Name)
		text += "  [green]Workout complete![white]\n\n"
		text += fmt.Sprintf("  [gray]Elapsed:[white] %s\n", formatDurationMMSS(snap.Elapsed))
		if snap.StepCount > 0 {
			text += fmt.Sprintf("  [gray]Steps:[white] %d\n", snap.StepCount)
		}
		text += "\n  [gray]Press[white] [yellow]1[white] [gray]to pick another preset[white]\n"
		return text
	}

	text := "\n"
	if snap.Status == session.StatusPaused {
		text += fmt.Sprintf("  [yellow]%s[white] [gray](PAUSED)[white]\n\n", snap.Config.Name)
	} else {
		text += fmt.Sprintf("  [yellow]%s[white]\n\n", snap.Config.Name)
	}

	text += fmt.Sprintf("  [cyan]%s[white] (%d/%d)\n", snap.Phase.Label(), snap.PhaseIndex+1, snap.PhaseCount)
	text += fmt.Sprintf("  [gray]Remaining:[white] [yellow]%s[white]\n\n", formatDurationMMSS(snap.Remaining))
	text += fmt.Sprintf("  [gray]Elapsed:[white]  %s\n", formatDurationMMSS(snap.Elapsed))
	text += fmt.Sprintf("  [gray]Progress:[white] %s %.0f%%\n", progressBar(snap.Progress, 20), snap.Progress*100)
	if snap.StepCount > 0 {
		text += fmt.Sprintf("  [gray]Steps:[white]    %d\n", snap.StepCount)
	}

	text += "\n  [gray]────────────────────────[white]\n"
	if snap.Status == session.StatusPaused {
		text += "  [yellow]Space[white] Resume  |  [yellow]S[white] Skip  |  [yellow]X[white] End\n"
	} else {
		text += "  [yellow]Space[white] Pause  |  [yellow]S[white] Skip  |  [yellow]X[white] End\n"
	}
	return text
}

func progressBar(fraction float64, width int) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	bar := ""
	for i := 0; i < width; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return bar
}

// formatDuration formats a duration for list display.
func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes >= 60 {
		hours := minutes / 60
		mins := minutes % 60
		if mins > 0 {
			return fmt.Sprintf("%dh %dm", hours, mins)
		}
		return fmt.Sprintf("%dh", hours)
	}
	if minutes == 0 {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	return fmt.Sprintf("%d min", minutes)
}

// formatDurationMMSS formats a duration as MM:SS.
func formatDurationMMSS(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
