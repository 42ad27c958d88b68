package control

import (
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
)

// ProcessMotion handles one motion-tracking result, the fallback when no
// hand detector is available. The centroid steers the pointer through the
// current mapping, and a region larger than MotionClickArea clicks on the
// shared click timer. Motion never starts a drag.
func (c *Controller) ProcessMotion(m capture.Motion, now time.Time) (Frame, error) {
	if !m.Found {
		return c.processLost(now)
	}

	k := gesture.KeyPoints{IndexTip: detector.Point3D{X: m.X, Y: m.Y}}
	c.positions.Push(gesture.Sample{Points: k, At: now})
	c.hand = true
	c.last = k
	c.label = gesture.LabelMotion
	c.lostAt = time.Time{}

	frame := Frame{Hand: true, Gesture: gesture.LabelMotion}
	if !c.active || c.session.Active() {
		return frame, nil
	}

	tx, ty := c.mapper().Target(m.X, m.Y)
	x, y := c.smoother.Step(tx, ty)
	c.pointer = Point{X: x, Y: y}
	frame.Pointer = c.pointer
	frame.Mapped = true

	var actions []Action
	if c.dragging {
		actions = append(actions, c.endDrag())
	}
	free := len(actions) == 0
	actions = append(actions, Action{Kind: ActionMove, X: x, Y: y})

	if free && m.Area > c.config.MotionClickArea && c.config.Features.Click && c.clickReady(now) {
		c.prevClick, c.lastClick = c.lastClick, now
		actions = append(actions, Action{Kind: ActionClick})
	}

	var err error
	frame.Actions, err = c.emit(actions)
	return frame, err
}
