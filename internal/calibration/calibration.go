// Package calibration implements the two-point control zone calibration.
package calibration

import (
	"errors"
	"math"
)

// DefaultMargin is the inset applied on every side of the default zone.
const DefaultMargin = 0.1

var (
	// ErrNotActive is returned when a capture is attempted with no session running.
	ErrNotActive = errors.New("calibration not in progress")
	// ErrNoHand is returned when a capture is attempted without a hand in view.
	ErrNoHand = errors.New("no hand detected")
)

// Zone is a rectangle in normalized frame coordinates.
type Zone struct {
	XMin float64 `json:"x_min"`
	XMax float64 `json:"x_max"`
	YMin float64 `json:"y_min"`
	YMax float64 `json:"y_max"`
}

// DefaultZone returns the full frame inset by DefaultMargin.
func DefaultZone() Zone {
	return Zone{
		XMin: DefaultMargin,
		XMax: 1 - DefaultMargin,
		YMin: DefaultMargin,
		YMax: 1 - DefaultMargin,
	}
}

// Bounding returns the smallest zone containing both corners.
func Bounding(ax, ay, bx, by float64) Zone {
	return Zone{
		XMin: math.Min(ax, bx),
		XMax: math.Max(ax, bx),
		YMin: math.Min(ay, by),
		YMax: math.Max(ay, by),
	}
}

// Width returns the horizontal extent.
func (z Zone) Width() float64 { return z.XMax - z.XMin }

// Height returns the vertical extent.
func (z Zone) Height() float64 { return z.YMax - z.YMin }

// Normalize maps (x, y) into [0,1]² relative to the zone, clamping points
// that fall outside it. A degenerate axis maps to its center.
func (z Zone) Normalize(x, y float64) (float64, float64) {
	return unit(x, z.XMin, z.XMax), unit(y, z.YMin, z.YMax)
}

func unit(v, lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 {
		return 0.5
	}
	return math.Max(0, math.Min(1, (v-lo)/span))
}

// Step is the progress of a calibration session.
type Step int

const (
	StepIdle Step = iota
	StepTopLeft
	StepBottomRight
)

func (s Step) String() string {
	switch s {
	case StepTopLeft:
		return "top-left"
	case StepBottomRight:
		return "bottom-right"
	default:
		return "idle"
	}
}

// Session runs the interactive procedure: the user places the index fingertip
// at the top-left then the bottom-right of the desired zone and confirms each
// position. Only a completed session yields a zone.
type Session struct {
	step   Step
	firstX float64
	firstY float64
}

// Start begins, or restarts, a session.
func (s *Session) Start() {
	s.step = StepTopLeft
	s.firstX, s.firstY = 0, 0
}

// Active reports whether a session is waiting for a capture.
func (s *Session) Active() bool {
	return s.step != StepIdle
}

// Step returns the corner the session is waiting for.
func (s *Session) Step() Step {
	return s.step
}

// Capture records the fingertip position for the current step. After the
// second capture it returns the new zone with done set and the session ends.
// Pass ok=false when no hand is in view; the session then stays on its step.
func (s *Session) Capture(x, y float64, ok bool) (zone Zone, done bool, err error) {
	if s.step == StepIdle {
		return Zone{}, false, ErrNotActive
	}
	if !ok {
		return Zone{}, false, ErrNoHand
	}

	if s.step == StepTopLeft {
		s.firstX, s.firstY = x, y
		s.step = StepBottomRight
		return Zone{}, false, nil
	}

	zone = Bounding(s.firstX, s.firstY, x, y)
	s.step = StepIdle
	return zone, true, nil
}

// Abort cancels the session without producing a zone.
func (s *Session) Abort() {
	s.step = StepIdle
	s.firstX, s.firstY = 0, 0
}
