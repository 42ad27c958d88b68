package control

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
)

// Bounds for tunables without a pointer package counterpart.
const (
	MinPinchThreshold = 0.005
	MaxPinchThreshold = 0.2
	MinScrollTicks    = 1
	MaxScrollTicks    = 50

	DefaultScrollTicks    = 3
	DefaultClickCooldown  = 500 * time.Millisecond
	DefaultScrollCooldown = 100 * time.Millisecond

	// DefaultMotionClickArea is the moving-region size, in camera pixels,
	// above which motion tracking clicks.
	DefaultMotionClickArea = 1000.0

	// AdjustStep is the increment used by the runtime tuning commands.
	AdjustStep = 0.1
)

// Feature names a toggleable action family.
type Feature int

const (
	FeatureClick Feature = iota
	FeatureRightClick
	FeatureScroll
	FeatureDrag
	FeatureZoom
)

// AllFeatures lists every feature in menu order.
var AllFeatures = []Feature{FeatureClick, FeatureRightClick, FeatureScroll, FeatureDrag, FeatureZoom}

func (f Feature) String() string {
	switch f {
	case FeatureClick:
		return "click"
	case FeatureRightClick:
		return "right_click"
	case FeatureScroll:
		return "scroll"
	case FeatureDrag:
		return "drag"
	case FeatureZoom:
		return "zoom"
	default:
		return "unknown"
	}
}

// ParseFeature parses a feature name as produced by String.
func ParseFeature(s string) (Feature, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, f := range AllFeatures {
		if f.String() == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown feature %q", s)
}

// Features holds the per-family toggles. Toggles gate emitted actions only;
// classification always runs.
type Features struct {
	Click      bool `json:"click"`
	RightClick bool `json:"right_click"`
	Scroll     bool `json:"scroll"`
	Drag       bool `json:"drag"`
	Zoom       bool `json:"zoom"`
}

// AllEnabled returns Features with every toggle on.
func AllEnabled() Features {
	return Features{Click: true, RightClick: true, Scroll: true, Drag: true, Zoom: true}
}

// Enabled reports the toggle for f.
func (fs Features) Enabled(f Feature) bool {
	switch f {
	case FeatureClick:
		return fs.Click
	case FeatureRightClick:
		return fs.RightClick
	case FeatureScroll:
		return fs.Scroll
	case FeatureDrag:
		return fs.Drag
	case FeatureZoom:
		return fs.Zoom
	default:
		return false
	}
}

// Set returns a copy with the toggle for f set to on.
func (fs Features) Set(f Feature, on bool) Features {
	switch f {
	case FeatureClick:
		fs.Click = on
	case FeatureRightClick:
		fs.RightClick = on
	case FeatureScroll:
		fs.Scroll = on
	case FeatureDrag:
		fs.Drag = on
	case FeatureZoom:
		fs.Zoom = on
	}
	return fs
}

// Config holds controller tunables.
type Config struct {
	Sensitivity    float64
	Smoothing      float64
	PinchThreshold float64
	ScrollTicks    int
	ClickCooldown  time.Duration
	ScrollCooldown time.Duration
	Features       Features
	Mapping        pointer.Mode
	// DragReleaseTimeout ends a drag after the hand has been missing this
	// long. Zero keeps the drag until the hand returns.
	DragReleaseTimeout time.Duration
	// MotionClickArea only applies to motion tracking.
	MotionClickArea float64
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() Config {
	return Config{
		Sensitivity:    pointer.DefaultSensitivity,
		Smoothing:      pointer.DefaultSmoothing,
		PinchThreshold: gesture.DefaultPinchThreshold,
		ScrollTicks:    DefaultScrollTicks,
		ClickCooldown:  DefaultClickCooldown,
		ScrollCooldown: DefaultScrollCooldown,
		Features:       AllEnabled(),
		Mapping:        pointer.ModeDirect,

		MotionClickArea: DefaultMotionClickArea,
	}
}

// Normalize returns a copy with every tunable clamped into its bounds.
// Out-of-range values are never an error.
func (c Config) Normalize() Config {
	c.Sensitivity = pointer.ClampSensitivity(c.Sensitivity)
	c.Smoothing = pointer.ClampSmoothing(c.Smoothing)

	switch {
	case math.IsNaN(c.PinchThreshold):
		c.PinchThreshold = gesture.DefaultPinchThreshold
	case c.PinchThreshold < MinPinchThreshold:
		c.PinchThreshold = MinPinchThreshold
	case c.PinchThreshold > MaxPinchThreshold:
		c.PinchThreshold = MaxPinchThreshold
	}

	if c.ScrollTicks < MinScrollTicks {
		c.ScrollTicks = MinScrollTicks
	} else if c.ScrollTicks > MaxScrollTicks {
		c.ScrollTicks = MaxScrollTicks
	}

	if c.ClickCooldown < 0 {
		c.ClickCooldown = 0
	}
	if c.ScrollCooldown < 0 {
		c.ScrollCooldown = 0
	}
	if c.DragReleaseTimeout < 0 {
		c.DragReleaseTimeout = 0
	}
	if !(c.MotionClickArea > 0) {
		c.MotionClickArea = DefaultMotionClickArea
	}
	if c.Mapping != pointer.ModeZone {
		c.Mapping = pointer.ModeDirect
	}
	return c
}
