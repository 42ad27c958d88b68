// Package control turns classified hand frames into pointer actions.
//
// A Controller owns every piece of cross-frame state: the smoothed pointer,
// drag flag, cooldown timers, position and scroll histories, zoom reference
// and calibration zone. Feed it one detector result per frame with Process
// and apply the returned actions, or give it an Injector to apply them.
package control

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/calibration"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
)

// Point is an integer screen position.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Frame is the outcome of processing one detector result.
type Frame struct {
	// Hand is false when no hand was detected.
	Hand    bool
	Gesture gesture.Label
	Fingers gesture.FingerState
	// Pointer is the mapped cursor position. It is only set when Mapped is.
	Pointer Point
	Mapped  bool
	// Actions are in emission order. At most one is discrete.
	Actions []Action
}

// Discrete returns the frame's discrete action, if any.
func (f Frame) Discrete() (Action, bool) {
	for _, a := range f.Actions {
		if a.Kind.Discrete() {
			return a, true
		}
	}
	return Action{}, false
}

// Status is a snapshot for display layers.
type Status struct {
	Active          bool
	Hand            bool
	Gesture         gesture.Label
	Calibrated      bool
	Calibrating     bool
	CalibrationStep calibration.Step
	Zone            calibration.Zone
	Mapping         pointer.Mode
	Sensitivity     float64
	Smoothing       float64
	Features        Features
	Dragging        bool
	DragStart       Point
	Pointer         Point
	Velocity        gesture.Velocity
}

// Controller is the action dispatcher. It starts idle.
//
// A Controller is not safe for concurrent use. Callers that drive it from
// more than one goroutine must serialize access.
type Controller struct {
	config   Config
	injector Injector
	log      logrus.FieldLogger

	classifier *gesture.Classifier
	positions  *gesture.History
	scroll     *gesture.ScrollTracker
	zoom       *gesture.ZoomTracker
	direct     *pointer.DirectMapper
	zoned      *pointer.ZoneMapper
	smoother   *pointer.Smoother
	session    calibration.Session

	active     bool
	calibrated bool
	dragging   bool
	dragStart  Point
	lastClick  time.Time
	lastScroll time.Time
	prevClick  time.Time
	prevScroll time.Time
	lostAt     time.Time

	hand    bool
	last    gesture.KeyPoints
	label   gesture.Label
	pointer Point
}

// New creates a Controller for the given screen. injector may be nil, in
// which case actions are only returned to the caller.
func New(config Config, screen pointer.Screen, injector Injector, log logrus.FieldLogger) *Controller {
	config = config.Normalize()
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Controller{
		config:     config,
		injector:   injector,
		log:        log,
		classifier: gesture.NewClassifier(config.PinchThreshold),
		positions:  gesture.NewHistory(gesture.PositionHistorySize),
		scroll:     gesture.NewScrollTracker(),
		zoom:       gesture.NewZoomTracker(),
		direct:     &pointer.DirectMapper{Screen: screen, Sensitivity: config.Sensitivity},
		zoned:      &pointer.ZoneMapper{Screen: screen, Zone: calibration.DefaultZone()},
		smoother:   pointer.NewSmoother(screen, config.Smoothing),
		label:      gesture.LabelUnknown,
	}
}

// SeedPointer sets the smoothed pointer state, typically to the cursor's
// current location, so the first frames do not sweep in from the corner.
func (c *Controller) SeedPointer(x, y int) {
	c.smoother.Seed(float64(x), float64(y))
	px, py := c.smoother.Position()
	c.pointer = Point{X: int(px), Y: int(py)}
}

// Process handles one detector result. hand is nil when no hand was
// detected. A hand with too few landmarks is rejected with an error
// wrapping gesture.ErrMalformedLandmarks and leaves all state untouched.
// An error wrapping ErrFailSafe means the controller has gone idle.
func (c *Controller) Process(hand *detector.HandLandmarks, now time.Time) (Frame, error) {
	if hand == nil {
		return c.processLost(now)
	}

	k, err := gesture.BuildKeyPoints(hand.Points)
	if err != nil {
		return Frame{}, fmt.Errorf("process frame: %w", err)
	}

	label, fingers := c.classifier.Classify(k)
	sample := gesture.Sample{Points: k, At: now}
	c.positions.Push(sample)
	c.hand = true
	c.last = k
	c.label = label
	c.lostAt = time.Time{}

	frame := Frame{Hand: true, Gesture: label, Fingers: fingers}
	if !c.active || c.session.Active() {
		return frame, nil
	}

	tx, ty := c.mapper().Target(k.IndexTip.X, k.IndexTip.Y)
	x, y := c.smoother.Step(tx, ty)
	c.pointer = Point{X: x, Y: y}
	frame.Pointer = c.pointer
	frame.Mapped = true

	frame.Actions, err = c.emit(c.dispatch(label, sample))
	return frame, err
}

func (c *Controller) processLost(now time.Time) (Frame, error) {
	c.hand = false
	if !c.dragging || c.config.DragReleaseTimeout <= 0 {
		return Frame{}, nil
	}

	if c.lostAt.IsZero() {
		c.lostAt = now
		return Frame{}, nil
	}
	if now.Sub(c.lostAt) < c.config.DragReleaseTimeout {
		return Frame{}, nil
	}

	c.log.WithField("after", now.Sub(c.lostAt)).Info("Hand lost during drag, releasing")
	actions, err := c.emit([]Action{c.endDrag()})
	return Frame{Actions: actions}, err
}

// dispatch decides the actions for an active frame. Leaving the pinch while
// dragging ends the drag, and that drag_end is the frame's only discrete
// action.
func (c *Controller) dispatch(label gesture.Label, s gesture.Sample) []Action {
	var actions []Action
	if c.dragging && label != gesture.LabelPinch {
		actions = append(actions, c.endDrag())
	}
	free := len(actions) == 0
	move := Action{Kind: ActionMove, X: c.pointer.X, Y: c.pointer.Y}
	features := c.config.Features

	switch label {
	case gesture.LabelPinch:
		switch {
		case c.dragging:
			actions = append(actions, Action{Kind: ActionDragContinue, X: c.pointer.X, Y: c.pointer.Y})
		case features.Drag:
			c.dragging = true
			c.dragStart = c.pointer
			actions = append(actions, Action{Kind: ActionDragBegin, X: c.pointer.X, Y: c.pointer.Y})
		case features.Click && c.clickReady(s.At):
			c.prevClick, c.lastClick = c.lastClick, s.At
			actions = append(actions, Action{Kind: ActionClick})
		}

	case gesture.LabelRightClick:
		if free && features.RightClick && c.clickReady(s.At) {
			c.prevClick, c.lastClick = c.lastClick, s.At
			actions = append(actions, Action{Kind: ActionRightClick})
		}

	case gesture.LabelScroll:
		dir := c.scroll.Observe(s)
		if free && dir != gesture.ScrollNone && features.Scroll && c.scrollReady(s.At) {
			c.prevScroll, c.lastScroll = c.lastScroll, s.At
			ticks := c.config.ScrollTicks
			if dir == gesture.ScrollDown {
				ticks = -ticks
			}
			actions = append(actions, Action{Kind: ActionScroll, Ticks: ticks})
		}
		actions = append(actions, move)

	case gesture.LabelZoom:
		dir := c.zoom.Observe(s.Points)
		if free && dir != gesture.ZoomNone && features.Zoom {
			actions = append(actions, Action{Kind: ActionZoom, Zoom: dir})
		}
		actions = append(actions, move)

	case gesture.LabelFist:
		// Paused: no pointer motion.

	default:
		actions = append(actions, move)
	}
	return actions
}

// clickReady gates click and right-click, which share one timer. The first
// click always passes.
func (c *Controller) clickReady(now time.Time) bool {
	return c.lastClick.IsZero() || now.Sub(c.lastClick) > c.config.ClickCooldown
}

func (c *Controller) scrollReady(now time.Time) bool {
	return c.lastScroll.IsZero() || now.Sub(c.lastScroll) > c.config.ScrollCooldown
}

func (c *Controller) endDrag() Action {
	c.dragging = false
	c.dragStart = Point{}
	c.lostAt = time.Time{}
	return Action{Kind: ActionDragEnd}
}

func (c *Controller) mapper() pointer.Mapper {
	if c.config.Mapping == pointer.ModeZone {
		return c.zoned
	}
	return c.direct
}

// emit logs and injects actions in order, stopping at the first failure. It
// returns the actions the injector accepted, plus any drag release forced by
// a fail-safe. The refused action is left out and its state change undone.
func (c *Controller) emit(actions []Action) ([]Action, error) {
	for i, a := range actions {
		c.logAction(a)
		if c.injector == nil {
			continue
		}

		err := c.injector.Inject(a)
		if err == nil {
			continue
		}

		c.revert(a)
		emitted := actions[:i:i]
		if errors.Is(err, ErrFailSafe) {
			c.log.WithError(err).Warn("Fail-safe triggered, mouse control paused")
			c.active = false
			// Still dragging here means an earlier drag_begin went through.
			if c.dragging {
				release := c.endDrag()
				c.logAction(release)
				if rerr := c.injector.Inject(release); rerr != nil {
					c.log.WithError(rerr).Warn("Failed to release drag")
				}
				emitted = append(emitted, release)
			}
		}
		return emitted, fmt.Errorf("inject %s: %w", a.Kind, err)
	}
	return actions, nil
}

// revert undoes what dispatch changed for an action the injector refused.
func (c *Controller) revert(a Action) {
	switch a.Kind {
	case ActionDragBegin:
		c.dragging = false
		c.dragStart = Point{}
	case ActionClick, ActionRightClick:
		c.lastClick = c.prevClick
	case ActionScroll:
		c.lastScroll = c.prevScroll
	}
}

func (c *Controller) logAction(a Action) {
	entry := c.log.WithField("action", a.Kind.String())
	switch a.Kind {
	case ActionMove, ActionDragContinue:
		entry.WithFields(logrus.Fields{"x": a.X, "y": a.Y}).Debug("Pointer moved")
	case ActionDragBegin:
		entry.WithFields(logrus.Fields{"x": a.X, "y": a.Y, "gesture": c.label.String()}).Info("Drag started")
	case ActionScroll:
		entry.WithField("ticks", a.Ticks).Info("Scroll")
	case ActionZoom:
		entry.WithField("direction", a.Zoom.String()).Info("Zoom")
	default:
		entry.WithField("gesture", c.label.String()).Info("Action")
	}
}

// SetActive enables or pauses mouse control. Pausing releases a drag in
// progress.
func (c *Controller) SetActive(active bool) ([]Action, error) {
	if active == c.active {
		return nil, nil
	}
	c.active = active

	if active {
		c.log.Info("Mouse control enabled")
		return nil, nil
	}

	c.log.Info("Mouse control paused")
	if !c.dragging {
		return nil, nil
	}
	return c.emit([]Action{c.endDrag()})
}

// ToggleActive flips between active and idle.
func (c *Controller) ToggleActive() ([]Action, error) {
	return c.SetActive(!c.active)
}

// Active reports whether mouse control is enabled.
func (c *Controller) Active() bool {
	return c.active
}

// SetFeature sets one feature toggle.
func (c *Controller) SetFeature(f Feature, on bool) {
	c.config.Features = c.config.Features.Set(f, on)
	c.log.WithFields(logrus.Fields{"feature": f.String(), "enabled": on}).Info("Feature toggled")
}

// ToggleFeature flips one feature toggle and returns its new state.
func (c *Controller) ToggleFeature(f Feature) bool {
	on := !c.config.Features.Enabled(f)
	c.SetFeature(f, on)
	return on
}

// AdjustSensitivity adds delta to the sensitivity, clamped to its bounds,
// and returns the new value.
func (c *Controller) AdjustSensitivity(delta float64) float64 {
	return c.SetSensitivity(c.config.Sensitivity + delta)
}

// SetSensitivity sets the sensitivity, clamped to its bounds, and returns
// the value applied.
func (c *Controller) SetSensitivity(v float64) float64 {
	c.config.Sensitivity = pointer.ClampSensitivity(v)
	c.direct.Sensitivity = c.config.Sensitivity
	c.log.WithField("sensitivity", fmt.Sprintf("%.1f", c.config.Sensitivity)).Info("Sensitivity adjusted")
	return c.config.Sensitivity
}

// AdjustSmoothing adds delta to the smoothing factor, clamped to its bounds,
// and returns the new value.
func (c *Controller) AdjustSmoothing(delta float64) float64 {
	return c.SetSmoothing(c.config.Smoothing + delta)
}

// SetSmoothing sets the smoothing factor, clamped to its bounds, and returns
// the value applied.
func (c *Controller) SetSmoothing(v float64) float64 {
	c.config.Smoothing = pointer.ClampSmoothing(v)
	c.smoother.SetFactor(c.config.Smoothing)
	c.log.WithField("smoothing", fmt.Sprintf("%.1f", c.config.Smoothing)).Info("Smoothing adjusted")
	return c.config.Smoothing
}

// SetMapping selects the pointer mapping strategy.
func (c *Controller) SetMapping(mode pointer.Mode) {
	if mode != pointer.ModeZone {
		mode = pointer.ModeDirect
	}
	c.config.Mapping = mode
	c.log.WithField("mapping", string(mode)).Info("Mapping mode changed")
}

// StartCalibration begins a two-point calibration. No actions are
// dispatched until it completes or is aborted, so a drag in progress is
// released first.
func (c *Controller) StartCalibration() ([]Action, error) {
	var actions []Action
	if c.dragging {
		actions = append(actions, c.endDrag())
	}
	c.session.Start()
	c.log.WithField("step", c.session.Step().String()).Info("Calibration started, place index fingertip and capture")
	return c.emit(actions)
}

// CaptureCalibration records the index fingertip from the latest frame for
// the current calibration step. It reports whether calibration completed.
// It fails with calibration.ErrNoHand when the latest frame had no hand.
func (c *Controller) CaptureCalibration() (bool, error) {
	step := c.session.Step()
	zone, done, err := c.session.Capture(c.last.IndexTip.X, c.last.IndexTip.Y, c.hand)
	if err != nil {
		return false, fmt.Errorf("capture %s: %w", step, err)
	}

	c.log.WithFields(logrus.Fields{
		"step": step.String(),
		"x":    c.last.IndexTip.X,
		"y":    c.last.IndexTip.Y,
	}).Info("Calibration point captured")

	if !done {
		return false, nil
	}

	c.zoned.Zone = zone
	c.calibrated = true
	c.log.WithFields(logrus.Fields{
		"x_min": zone.XMin, "x_max": zone.XMax,
		"y_min": zone.YMin, "y_max": zone.YMax,
	}).Info("Calibration complete")
	return true, nil
}

// AbortCalibration cancels a calibration without changing the zone.
func (c *Controller) AbortCalibration() {
	if !c.session.Active() {
		return
	}
	c.session.Abort()
	c.log.Info("Calibration aborted")
}

// Reset ends any drag, forgets the zoom reference and restores the default
// zone. A drag in progress produces exactly one drag_end.
func (c *Controller) Reset() ([]Action, error) {
	var actions []Action
	if c.dragging {
		actions = append(actions, c.endDrag())
	}

	c.session.Abort()
	c.zoom.Reset()
	c.zoned.Zone = calibration.DefaultZone()
	c.calibrated = false
	c.smoother.Reset()

	c.log.Info("Controller reset")
	return c.emit(actions)
}

// Close releases a drag in progress and leaves the controller idle.
func (c *Controller) Close() ([]Action, error) {
	c.active = false
	if !c.dragging {
		return nil, nil
	}
	return c.emit([]Action{c.endDrag()})
}

// Config returns the current tunables, including runtime adjustments.
func (c *Controller) Config() Config {
	return c.config
}

// Status returns a snapshot of the controller state.
func (c *Controller) Status() Status {
	return Status{
		Active:          c.active,
		Hand:            c.hand,
		Gesture:         c.label,
		Calibrated:      c.calibrated,
		Calibrating:     c.session.Active(),
		CalibrationStep: c.session.Step(),
		Zone:            c.zoned.Zone,
		Mapping:         c.config.Mapping,
		Sensitivity:     c.config.Sensitivity,
		Smoothing:       c.config.Smoothing,
		Features:        c.config.Features,
		Dragging:        c.dragging,
		DragStart:       c.dragStart,
		Pointer:         c.pointer,
		Velocity:        c.positions.Velocity(),
	}
}
