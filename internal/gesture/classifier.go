package gesture

// Label is the gesture recognized in a single frame.
type Label int

const (
	LabelUnknown Label = iota
	LabelPoint
	LabelPinch
	LabelRightClick
	LabelScroll
	LabelZoom
	LabelFist
	LabelOpenHand
	// LabelMotion marks frames from motion tracking, which has no hand pose.
	LabelMotion
)

var labelNames = map[Label]string{
	LabelUnknown:    "unknown",
	LabelPoint:      "point",
	LabelPinch:      "pinch",
	LabelRightClick: "right_click_gesture",
	LabelScroll:     "scroll",
	LabelZoom:       "zoom",
	LabelFist:       "fist",
	LabelOpenHand:   "open_hand",
	LabelMotion:     "motion",
}

func (l Label) String() string {
	if name, ok := labelNames[l]; ok {
		return name
	}
	return "unknown"
}

// DefaultPinchThreshold is the thumb-to-index distance, in normalized frame
// units, below which the hand counts as pinching.
const DefaultPinchThreshold = 0.03

// observation is everything a rule may look at.
type observation struct {
	fingers FingerState
	pinch   float64
}

type rule struct {
	label Label
	match func(o observation, threshold float64) bool
}

// rules are evaluated in order and the first match wins. Pinch must come
// before fist: touching tips usually read as at most one extended finger.
var rules = []rule{
	{LabelPinch, func(o observation, th float64) bool {
		return o.pinch < th
	}},
	{LabelRightClick, func(o observation, th float64) bool {
		return o.fingers.Only(Thumb, Index) && o.pinch > 2*th
	}},
	{LabelScroll, func(o observation, _ float64) bool {
		return o.fingers.Only(Index, Middle)
	}},
	{LabelZoom, func(o observation, _ float64) bool {
		return o.fingers.Only(Index, Middle, Ring)
	}},
	{LabelPoint, func(o observation, _ float64) bool {
		return o.fingers.Only(Index)
	}},
	{LabelFist, func(o observation, _ float64) bool {
		return o.fingers.Count() <= 1
	}},
	{LabelOpenHand, func(o observation, _ float64) bool {
		return o.fingers.Count() >= 4
	}},
}

// Classifier maps key points to a gesture label. It holds no per-frame state.
type Classifier struct {
	PinchThreshold float64
}

// NewClassifier creates a Classifier with the given pinch threshold.
func NewClassifier(pinchThreshold float64) *Classifier {
	return &Classifier{PinchThreshold: pinchThreshold}
}

// Classify returns the gesture label and the finger state it was derived from.
func (c *Classifier) Classify(k KeyPoints) (Label, FingerState) {
	o := observation{
		fingers: DetectFingers(k),
		pinch:   k.PinchDistance(),
	}

	for _, r := range rules {
		if r.match(o, c.PinchThreshold) {
			return r.label, o.fingers
		}
	}
	return LabelUnknown, o.fingers
}
