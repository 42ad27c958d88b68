// Package inject applies controller actions to the host pointer and
// keyboard.
package inject

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/go-vgo/robotgo"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/pointer"
)

// Config holds options for RobotInjector.
type Config struct {
	// FailSafe aborts injection while the real cursor sits in the top-left
	// screen corner, so a user can always regain control by flinging the
	// mouse there.
	FailSafe bool
	// CornerSize is the side of the fail-safe square in pixels.
	CornerSize int
}

// DefaultConfig returns the default injector configuration.
func DefaultConfig() Config {
	return Config{
		FailSafe:   true,
		CornerSize: 2,
	}
}

// RobotInjector drives the OS cursor through robotgo.
type RobotInjector struct {
	config   Config
	log      logrus.FieldLogger
	modifier string

	mu   sync.Mutex
	held bool
}

var _ control.Injector = (*RobotInjector)(nil)

// NewRobotInjector creates a RobotInjector.
func NewRobotInjector(config Config, log logrus.FieldLogger) *RobotInjector {
	if config.CornerSize <= 0 {
		config.CornerSize = DefaultConfig().CornerSize
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	modifier := "ctrl"
	if runtime.GOOS == "darwin" {
		modifier = "cmd"
	}

	return &RobotInjector{config: config, log: log, modifier: modifier}
}

// Screen returns the primary display size.
func (r *RobotInjector) Screen() pointer.Screen {
	w, h := robotgo.GetScreenSize()
	return pointer.Screen{Width: w, Height: h}
}

// Location returns the current cursor position.
func (r *RobotInjector) Location() (int, int) {
	return robotgo.Location()
}

// Inject implements control.Injector.
func (r *RobotInjector) Inject(a control.Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.Kind == control.ActionDragEnd {
		return r.release()
	}
	if r.config.FailSafe {
		if x, y := robotgo.Location(); inCorner(x, y, r.config.CornerSize) {
			return fmt.Errorf("cursor at (%d,%d): %w", x, y, control.ErrFailSafe)
		}
	}

	switch a.Kind {
	case control.ActionMove, control.ActionDragContinue:
		robotgo.Move(a.X, a.Y)
	case control.ActionDragBegin:
		robotgo.Move(a.X, a.Y)
		if err := robotgo.Toggle("left"); err != nil {
			return fmt.Errorf("press left button: %w", err)
		}
		r.held = true
	case control.ActionClick:
		robotgo.Click("left")
	case control.ActionRightClick:
		robotgo.Click("right")
	case control.ActionScroll:
		if a.Ticks > 0 {
			robotgo.ScrollDir(a.Ticks, "up")
		} else if a.Ticks < 0 {
			robotgo.ScrollDir(-a.Ticks, "down")
		}
	case control.ActionZoom:
		return r.zoom(a.Zoom)
	}
	return nil
}

func (r *RobotInjector) zoom(dir gesture.ZoomDirection) error {
	key := ""
	switch dir {
	case gesture.ZoomIn:
		key = "="
	case gesture.ZoomOut:
		key = "-"
	default:
		return nil
	}
	if err := robotgo.KeyTap(key, r.modifier); err != nil {
		return fmt.Errorf("zoom %s: %w", dir, err)
	}
	return nil
}

func (r *RobotInjector) release() error {
	if !r.held {
		r.log.Debug("Drag end without a held button")
	}
	r.held = false
	if err := robotgo.Toggle("left", "up"); err != nil {
		return fmt.Errorf("release left button: %w", err)
	}
	return nil
}

func inCorner(x, y, size int) bool {
	return x < size && y < size
}
