// Package feedback turns joint scores into short corrective messages.
package feedback

// Defaults used when Options leaves a field zero.
const (
	DefaultNeedsImprovement = 0.7
	DefaultMaxMessages      = 3
)

// CoverageMessage asks the user to bring the body fully into view. It replaces a
// joint's form correction when the joint could not be measured.
const CoverageMessage = "Step back so your whole body is in frame"

// Band is one overall-accuracy message. A score belongs to the first band whose
// Max it does not exceed.
type Band struct {
	Max     int
	Message string
}

// DefaultBands are the overall messages, lowest band first.
var DefaultBands = []Band{
	{Max: 30, Message: "Let's find the pose together, start with the basic shape"},
	{Max: 60, Message: "You're getting there, focus on the corrections below"},
	{Max: 85, Message: "Good form, just a few small adjustments"},
	{Max: 100, Message: "Excellent! Hold the pose and keep breathing"},
}

// Joint is the scoring outcome of one joint check, in profile order.
type Joint struct {
	Name     string
	Measured bool
	Score    float64
	// Feedback is the joint's corrective text from its profile.
	Feedback string
}

// Options tunes message selection.
type Options struct {
	NeedsImprovement float64
	MaxMessages      int
	Bands            []Band
}

func (o Options) withDefaults() Options {
	if o.NeedsImprovement <= 0 {
		o.NeedsImprovement = DefaultNeedsImprovement
	}
	if o.MaxMessages <= 0 {
		o.MaxMessages = DefaultMaxMessages
	}
	if len(o.Bands) == 0 {
		o.Bands = DefaultBands
	}
	return o
}

// BandMessage returns the overall message for an accuracy. Scores on a band
// boundary take the lower band.
func BandMessage(accuracy int, bands []Band) string {
	if len(bands) == 0 {
		bands = DefaultBands
	}
	for _, b := range bands {
		if accuracy <= b.Max {
			return b.Message
		}
	}
	return bands[len(bands)-1].Message
}

// Generate builds the feedback list for one frame: the band message for accuracy,
// then one message per joint that needs attention in the order given. Measured
// joints scoring below the improvement threshold contribute their own text;
// unmeasured joints contribute CoverageMessage. Duplicates are dropped and the
// list is capped at MaxMessages.
func Generate(accuracy int, joints []Joint, opts Options) []string {
	opts = opts.withDefaults()

	messages := make([]string, 0, opts.MaxMessages)
	seen := make(map[string]bool)
	add := func(msg string) {
		if msg == "" || seen[msg] || len(messages) >= opts.MaxMessages {
			return
		}
		seen[msg] = true
		messages = append(messages, msg)
	}

	add(BandMessage(accuracy, opts.Bands))

	for _, j := range joints {
		switch {
		case !j.Measured:
			add(CoverageMessage)
		case j.Score < opts.NeedsImprovement:
			add(j.Feedback)
		}
	}

	return messages
}
