// Package pointer maps normalized hand positions onto screen coordinates.
//
// Two strategies share the Mapper interface: DirectMapper scales the
// offset from screen center by a sensitivity factor, and ZoneMapper
// stretches a calibrated control zone over the whole screen. Either
// target is then fed through a Smoother.
package pointer

import (
	"fmt"
	"math"
	"strings"

	"github.com/ayusman/mudra/internal/calibration"
)

// Tunable bounds.
const (
	MinSensitivity = 0.1
	MaxSensitivity = 3.0
	MinSmoothing   = 0.1
	MaxSmoothing   = 1.0

	DefaultSensitivity = 2.0
	DefaultSmoothing   = 0.7
)

// Screen is the target display size in pixels.
type Screen struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Clamp limits (x, y) to [0, Width-1] x [0, Height-1].
func (s Screen) Clamp(x, y float64) (float64, float64) {
	return clamp(x, 0, float64(s.Width-1)), clamp(y, 0, float64(s.Height-1))
}

// Valid reports whether both dimensions are positive.
func (s Screen) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

func (s Screen) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Mapper converts a normalized (x, y) position into an unsmoothed screen
// target. Implementations always return a target inside the screen.
type Mapper interface {
	Target(x, y float64) (float64, float64)
}

// DirectMapper projects the position onto the screen and scales its offset
// from the screen center by Sensitivity.
type DirectMapper struct {
	Screen      Screen
	Sensitivity float64
}

// Target implements Mapper.
func (m *DirectMapper) Target(x, y float64) (float64, float64) {
	cx := float64(m.Screen.Width / 2)
	cy := float64(m.Screen.Height / 2)
	s := ClampSensitivity(m.Sensitivity)

	tx := cx + (x*float64(m.Screen.Width)-cx)*s
	ty := cy + (y*float64(m.Screen.Height)-cy)*s
	return m.Screen.Clamp(tx, ty)
}

// ZoneMapper stretches Zone over the full screen. Positions outside the
// zone pin to the nearest edge.
type ZoneMapper struct {
	Screen Screen
	Zone   calibration.Zone
}

// Target implements Mapper.
func (m *ZoneMapper) Target(x, y float64) (float64, float64) {
	nx, ny := m.Zone.Normalize(x, y)
	return m.Screen.Clamp(nx*float64(m.Screen.Width), ny*float64(m.Screen.Height))
}

// Mode selects a mapping strategy.
type Mode string

const (
	ModeDirect Mode = "direct"
	ModeZone   Mode = "zone"
)

// ParseMode parses a mode name. Unknown names are an error.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeDirect, "":
		return ModeDirect, nil
	case ModeZone:
		return ModeZone, nil
	default:
		return ModeDirect, fmt.Errorf("unknown mapping mode %q", s)
	}
}

// Smoother is an exponential moving average over screen targets.
type Smoother struct {
	screen  Screen
	factor  float64
	x, y    float64
	originX float64
	originY float64
}

// NewSmoother creates a Smoother resting at the top-left corner.
func NewSmoother(screen Screen, factor float64) *Smoother {
	return &Smoother{screen: screen, factor: ClampSmoothing(factor)}
}

// Seed moves both the current state and the reset origin to (x, y).
func (s *Smoother) Seed(x, y float64) {
	s.originX, s.originY = s.screen.Clamp(x, y)
	s.x, s.y = s.originX, s.originY
}

// Step advances the state toward the target and returns the new integer
// position, which always lies on screen.
func (s *Smoother) Step(tx, ty float64) (int, int) {
	tx, ty = s.screen.Clamp(tx, ty)
	s.x += (tx - s.x) * s.factor
	s.y += (ty - s.y) * s.factor

	x, y := s.screen.Clamp(s.x, s.y)
	return int(x), int(y)
}

// Position returns the current smoothed state.
func (s *Smoother) Position() (float64, float64) {
	return s.x, s.y
}

// Factor returns the smoothing factor.
func (s *Smoother) Factor() float64 {
	return s.factor
}

// SetFactor updates the smoothing factor, clamped to its bounds.
func (s *Smoother) SetFactor(f float64) {
	s.factor = ClampSmoothing(f)
}

// Reset returns the state to the seeded origin.
func (s *Smoother) Reset() {
	s.x, s.y = s.originX, s.originY
}

// ClampSensitivity limits v to [MinSensitivity, MaxSensitivity].
func ClampSensitivity(v float64) float64 {
	return clamp(v, MinSensitivity, MaxSensitivity)
}

// ClampSmoothing limits v to [MinSmoothing, MaxSmoothing].
func ClampSmoothing(v float64) float64 {
	return clamp(v, MinSmoothing, MaxSmoothing)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
