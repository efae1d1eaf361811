package tray

import (
	"testing"

	"github.com/ayusman/posecoach/internal/scoring"
)

func TestScoreTitle(t *testing.T) {
	tests := []struct {
		name string
		out  scoring.Outcome
		want string
	}{
		{"empty", scoring.Outcome{}, "Score: -"},
		{
			"scored",
			scoring.Outcome{Kind: scoring.OutcomeScored, Result: &scoring.ScoreResult{OverallAccuracy: 72}},
			"Score: 72",
		},
		{
			"steady",
			scoring.Outcome{Kind: scoring.OutcomeScored, Result: &scoring.ScoreResult{OverallAccuracy: 91, IsStable: true}},
			"Score: 91 (steady)",
		},
		{"no detection", scoring.Outcome{Kind: scoring.OutcomeNoDetection}, "Score: nobody in frame"},
		{"unknown pose", scoring.Outcome{Kind: scoring.OutcomeUnknownPose}, "Score: Unknown pose type"},
		{"insufficient", scoring.Outcome{Kind: scoring.OutcomeInsufficientInput}, "Score: not enough visible"},
		{"skipped", scoring.Outcome{Kind: scoring.OutcomeSkipped}, "Score: -"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreTitle(tt.out); got != tt.want {
				t.Errorf("ScoreTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTopHint(t *testing.T) {
	only := scoring.Outcome{Result: &scoring.ScoreResult{Feedback: []string{"Great form!"}}}
	if got := topHint(only); got != "" {
		t.Errorf("topHint() with band message only = %q, want empty", got)
	}

	two := scoring.Outcome{Result: &scoring.ScoreResult{Feedback: []string{"Getting there", "Straighten your left knee"}}}
	if got := topHint(two); got != "Straighten your left knee" {
		t.Errorf("topHint() = %q", got)
	}

	if got := topHint(scoring.Outcome{}); got != "" {
		t.Errorf("topHint() without result = %q, want empty", got)
	}
}

func TestTray_State(t *testing.T) {
	tr := New([]PoseItem{{ID: "mountain", Name: "Mountain"}, {ID: "tree", Name: "Tree"}}, "mountain")

	if !tr.IsEnabled() {
		t.Error("tray should start enabled")
	}
	if tr.Current() != "mountain" {
		t.Errorf("Current() = %q, want mountain", tr.Current())
	}

	var toggled []bool
	tr.OnToggle(func(enabled bool) { toggled = append(toggled, enabled) })
	tr.handleToggle()
	tr.handleToggle()
	if len(toggled) != 2 || toggled[0] || !toggled[1] {
		t.Errorf("toggle callbacks = %v, want [false true]", toggled)
	}

	var picked string
	tr.OnPose(func(id string) { picked = id })
	tr.handlePose("tree")
	if picked != "tree" || tr.Current() != "tree" {
		t.Errorf("after selecting tree: picked %q, current %q", picked, tr.Current())
	}

	// No menu yet; must not panic.
	tr.SetOutcome(scoring.Outcome{Kind: scoring.OutcomeNoDetection})
}
