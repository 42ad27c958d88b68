package gesture

// Finger identifies one digit of the hand.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
	numFingers
)

var fingerNames = [numFingers]string{"thumb", "index", "middle", "ring", "pinky"}

func (f Finger) String() string {
	if f < 0 || f >= numFingers {
		return "unknown"
	}
	return fingerNames[f]
}

// FingerState records which fingers are extended.
type FingerState [numFingers]bool

// DetectFingers derives FingerState from key point geometry.
//
// The thumb test compares x coordinates and assumes a right hand in a
// horizontally mirrored (selfie) frame. Image y grows downward, so a finger
// is extended when its tip is above its reference joint.
func DetectFingers(k KeyPoints) FingerState {
	var s FingerState
	s[Thumb] = k.ThumbTip.X > k.ThumbJoint.X
	s[Index] = k.IndexTip.Y < k.IndexJoint.Y
	s[Middle] = k.MiddleTip.Y < k.PalmCenter.Y
	s[Ring] = k.RingTip.Y < k.PalmCenter.Y
	s[Pinky] = k.PinkyTip.Y < k.PalmCenter.Y
	return s
}

// Extended reports whether f is extended.
func (s FingerState) Extended(f Finger) bool {
	return s[f]
}

// Count returns the number of extended fingers.
func (s FingerState) Count() int {
	n := 0
	for _, up := range s {
		if up {
			n++
		}
	}
	return n
}

// Only reports whether exactly the given fingers are extended.
func (s FingerState) Only(fingers ...Finger) bool {
	var want FingerState
	for _, f := range fingers {
		want[f] = true
	}
	return s == want
}
