// Package tray provides a system tray menu for live practice: pausing, choosing
// the pose and showing the latest score.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"

	"github.com/ayusman/posecoach/internal/scoring"
)

// PoseItem is a selectable pose in the menu.
type PoseItem struct {
	ID   string
	Name string
}

// Tray represents the system tray application.
type Tray struct {
	poses []PoseItem

	onToggle   func(enabled bool)
	onPose     func(id string)
	onSettings func()
	onQuit     func()
	enabled    bool
	current    string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuScore  *systray.MenuItem
	menuHint   *systray.MenuItem
	menuPoses  map[string]*systray.MenuItem
}

// New creates a tray listing poses, with current checked and scoring enabled.
func New(poses []PoseItem, current string) *Tray {
	return &Tray{
		poses:   poses,
		current: current,
		enabled: true,
	}
}

// OnToggle sets the callback function to be called when the enabled state is toggled.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnPose sets the callback function to be called when a pose is chosen.
func (t *Tray) OnPose(fn func(id string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPose = fn
}

// OnSettings sets the callback function to be called when the settings menu item is clicked.
func (t *Tray) OnSettings(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSettings = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

func (t *Tray) onReady() {
	systray.SetTitle("PoseCoach")
	systray.SetTooltip("PoseCoach pose practice")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume scoring")
	systray.AddSeparator()

	t.menuScore = systray.AddMenuItem(ScoreTitle(scoring.Outcome{}), "Latest score")
	t.menuScore.Disable()
	t.menuHint = systray.AddMenuItem("", "Top correction")
	t.menuHint.Disable()
	t.menuHint.Hide()
	systray.AddSeparator()

	menuPose := systray.AddMenuItem("Pose", "Choose the pose to practice")
	t.menuPoses = make(map[string]*systray.MenuItem, len(t.poses))
	for _, p := range t.poses {
		item := menuPose.AddSubMenuItemCheckbox(p.Name, p.ID, p.ID == t.current)
		t.menuPoses[p.ID] = item
		go t.watchPose(p.ID, item)
	}
	systray.AddSeparator()
	t.mu.Unlock()

	menuSettings := systray.AddMenuItem("Open Pose Library...", "Open the pose library in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit PoseCoach")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuSettings.ClickedCh:
				t.handleSettings()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) watchPose(id string, item *systray.MenuItem) {
	for range item.ClickedCh {
		t.handlePose(id)
	}
}

func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled
	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}
	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

func (t *Tray) handlePose(id string) {
	t.mu.Lock()
	t.current = id
	for pid, item := range t.menuPoses {
		if pid == id {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
	callback := t.onPose
	t.mu.Unlock()

	if callback != nil {
		callback(id)
	}
}

func (t *Tray) handleSettings() {
	t.mu.RLock()
	callback := t.onSettings
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// SetOutcome shows the latest scored frame in the menu.
func (t *Tray) SetOutcome(out scoring.Outcome) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuScore == nil {
		return
	}
	t.menuScore.SetTitle(ScoreTitle(out))

	if hint := topHint(out); hint != "" {
		t.menuHint.SetTitle(hint)
		t.menuHint.Show()
	} else {
		t.menuHint.Hide()
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

// Current returns the selected pose.
func (t *Tray) Current() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.current
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Scoring"
	}
	return "○ Paused"
}

// ScoreTitle formats an outcome for the score line.
func ScoreTitle(out scoring.Outcome) string {
	switch {
	case out.Scored() && out.Result != nil:
		stable := ""
		if out.Result.IsStable {
			stable = " (steady)"
		}
		return fmt.Sprintf("Score: %d%s", out.Result.OverallAccuracy, stable)
	case out.Kind == scoring.OutcomeNoDetection:
		return "Score: nobody in frame"
	case out.Kind == scoring.OutcomeUnknownPose:
		return "Score: " + scoring.UnknownPoseMessage
	case out.Kind == scoring.OutcomeInsufficientInput:
		return "Score: not enough visible"
	default:
		return "Score: -"
	}
}

// topHint returns the most specific correction: the last feedback message, since
// the first one is always the overall band message.
func topHint(out scoring.Outcome) string {
	if out.Result == nil || len(out.Result.Feedback) < 2 {
		return ""
	}
	return out.Result.Feedback[len(out.Result.Feedback)-1]
}
