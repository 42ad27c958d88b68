package control

import (
	"errors"
	"fmt"

	"github.com/ayusman/mudra/internal/gesture"
)

// ErrFailSafe is returned by an Injector that refuses to act because the
// user triggered its safety abort. The controller drops to idle on it.
var ErrFailSafe = errors.New("injection fail-safe triggered")

// ActionKind identifies what an Action asks the host to do.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionMove
	ActionClick
	ActionRightClick
	ActionScroll
	ActionZoom
	ActionDragBegin
	ActionDragContinue
	ActionDragEnd
)

var actionNames = [...]string{
	ActionNone:         "none",
	ActionMove:         "move",
	ActionClick:        "click",
	ActionRightClick:   "right_click",
	ActionScroll:       "scroll",
	ActionZoom:         "zoom",
	ActionDragBegin:    "drag_begin",
	ActionDragContinue: "drag_continue",
	ActionDragEnd:      "drag_end",
}

func (k ActionKind) String() string {
	if k < 0 || int(k) >= len(actionNames) {
		return "none"
	}
	return actionNames[k]
}

// Discrete reports whether the kind is a discrete action rather than
// pointer motion.
func (k ActionKind) Discrete() bool {
	switch k {
	case ActionClick, ActionRightClick, ActionScroll, ActionZoom, ActionDragBegin, ActionDragEnd:
		return true
	default:
		return false
	}
}

// Action is one instruction for the injection collaborator.
//
// X and Y are set for move, drag_begin and drag_continue. Ticks is the
// signed scroll amount, positive scrolling up. Zoom is set for zoom.
type Action struct {
	Kind  ActionKind
	X, Y  int
	Ticks int
	Zoom  gesture.ZoomDirection
}

func (a Action) String() string {
	switch a.Kind {
	case ActionMove, ActionDragBegin, ActionDragContinue:
		return fmt.Sprintf("%s(%d,%d)", a.Kind, a.X, a.Y)
	case ActionScroll:
		return fmt.Sprintf("scroll(%+d)", a.Ticks)
	case ActionZoom:
		return fmt.Sprintf("zoom(%s)", a.Zoom)
	default:
		return a.Kind.String()
	}
}

// Injector performs actions on the host. Implementations return an error
// wrapping ErrFailSafe when their safety abort fires; a drag_end must
// always be honored so a held button can be released.
type Injector interface {
	Inject(a Action) error
}
