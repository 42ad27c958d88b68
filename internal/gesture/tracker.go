package gesture

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Tracker thresholds in normalized frame units.
const (
	// ScrollThreshold is the minimum mean per-frame vertical drift of the
	// middle fingertip that counts as a scroll.
	ScrollThreshold = 0.005
	// ZoomThreshold is the minimum frame-to-frame change in index-to-ring
	// spread that counts as a zoom step.
	ZoomThreshold = 0.01

	scrollMinSamples = 3
	scrollWindow     = 3
)

// ScrollDirection is the vertical direction of a two-finger scroll.
type ScrollDirection int

const (
	ScrollNone ScrollDirection = iota
	ScrollUp
	ScrollDown
)

func (d ScrollDirection) String() string {
	switch d {
	case ScrollUp:
		return "up"
	case ScrollDown:
		return "down"
	default:
		return "none"
	}
}

// ScrollTracker detects vertical drift of the middle fingertip over the last
// few scroll-gesture frames.
type ScrollTracker struct {
	history *History
}

// NewScrollTracker creates a ScrollTracker with a ScrollHistorySize window.
func NewScrollTracker() *ScrollTracker {
	return &ScrollTracker{history: NewHistory(ScrollHistorySize)}
}

// Observe records a scroll-gesture frame and reports the current direction.
func (t *ScrollTracker) Observe(s Sample) ScrollDirection {
	t.history.Push(s)
	return t.Direction()
}

// Direction reports the scroll direction implied by the recorded frames
// without adding a new one.
func (t *ScrollTracker) Direction() ScrollDirection {
	if t.history.Len() < scrollMinSamples {
		return ScrollNone
	}

	tail := t.history.Tail(scrollWindow)
	diffs := make([]float64, 0, len(tail)-1)
	for i := 1; i < len(tail); i++ {
		diffs = append(diffs, tail[i].Points.MiddleTip.Y-tail[i-1].Points.MiddleTip.Y)
	}

	drift := stat.Mean(diffs, nil)
	switch {
	case math.Abs(drift) <= ScrollThreshold:
		return ScrollNone
	case drift < 0:
		return ScrollUp
	default:
		return ScrollDown
	}
}

// Len returns the number of frames held.
func (t *ScrollTracker) Len() int {
	return t.history.Len()
}

// Reset clears the scroll window.
func (t *ScrollTracker) Reset() {
	t.history.Reset()
}

// ZoomDirection is the direction of a three-finger zoom step.
type ZoomDirection int

const (
	ZoomNone ZoomDirection = iota
	ZoomIn
	ZoomOut
)

func (d ZoomDirection) String() string {
	switch d {
	case ZoomIn:
		return "zoom_in"
	case ZoomOut:
		return "zoom_out"
	default:
		return "none"
	}
}

// ZoomTracker compares the index-to-ring spread with the previous zoom frame.
// The reference follows the hand every frame rather than holding a fixed
// baseline, so a slow steady spread never triggers.
type ZoomTracker struct {
	reference float64
	set       bool
}

// NewZoomTracker creates a ZoomTracker with no reference.
func NewZoomTracker() *ZoomTracker {
	return &ZoomTracker{}
}

// Observe records a zoom-gesture frame and reports the step direction.
// The first frame after a reset only records the reference.
func (t *ZoomTracker) Observe(k KeyPoints) ZoomDirection {
	current := k.SpreadDistance()
	if !t.set {
		t.reference = current
		t.set = true
		return ZoomNone
	}

	delta := current - t.reference
	t.reference = current

	switch {
	case math.Abs(delta) <= ZoomThreshold:
		return ZoomNone
	case delta > 0:
		return ZoomIn
	default:
		return ZoomOut
	}
}

// Reference returns the recorded spread and whether one is set.
func (t *ZoomTracker) Reference() (float64, bool) {
	return t.reference, t.set
}

// Reset clears the reference.
func (t *ZoomTracker) Reset() {
	t.reference = 0
	t.set = false
}
