package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// PoseLandmarks builds a right hand, as seen in a mirrored front camera, with
// the requested fingers extended. The geometry is laid out so that the
// controller's finger tests read back exactly the flags passed in.
func PoseLandmarks(thumb, index, middle, ring, pinky bool) HandLandmarks {
	p := make([]Point3D, NumLandmarks)

	p[Wrist] = Point3D{X: 0.50, Y: 0.80}

	// Palm center sits at the middle finger knuckle.
	p[IndexMCP] = Point3D{X: 0.55, Y: 0.64}
	p[MiddleMCP] = Point3D{X: 0.50, Y: 0.62}
	p[RingMCP] = Point3D{X: 0.45, Y: 0.64}
	p[PinkyMCP] = Point3D{X: 0.41, Y: 0.67}

	p[ThumbCMC] = Point3D{X: 0.55, Y: 0.76}
	p[ThumbMCP] = Point3D{X: 0.58, Y: 0.70}
	p[ThumbIP] = Point3D{X: 0.60, Y: 0.65}
	if thumb {
		p[ThumbTip] = Point3D{X: 0.66, Y: 0.60}
	} else {
		p[ThumbTip] = Point3D{X: 0.55, Y: 0.64, Z: -0.02}
	}

	p[IndexPIP] = Point3D{X: 0.56, Y: 0.52}
	if index {
		p[IndexDIP] = Point3D{X: 0.57, Y: 0.43}
		p[IndexTip] = Point3D{X: 0.57, Y: 0.35}
	} else {
		p[IndexDIP] = Point3D{X: 0.56, Y: 0.57, Z: -0.04}
		p[IndexTip] = Point3D{X: 0.55, Y: 0.60, Z: -0.02}
	}

	p[MiddlePIP], p[MiddleDIP], p[MiddleTip] = finger(0.50, middle, 0.30, 0.66)
	p[RingPIP], p[RingDIP], p[RingTip] = finger(0.44, ring, 0.34, 0.67)
	p[PinkyPIP], p[PinkyDIP], p[PinkyTip] = finger(0.39, pinky, 0.42, 0.69)

	return HandLandmarks{
		Points:     p,
		Handedness: "Right",
		Score:      0.95,
	}
}

// finger lays out PIP, DIP and tip along a vertical line at x.
func finger(x float64, extended bool, extendedTipY, curledTipY float64) (pip, dip, tip Point3D) {
	if extended {
		pip = Point3D{X: x, Y: 0.50}
		dip = Point3D{X: x, Y: (0.50 + extendedTipY) / 2}
		tip = Point3D{X: x, Y: extendedTipY}
		return pip, dip, tip
	}
	pip = Point3D{X: x, Y: 0.58, Z: -0.05}
	dip = Point3D{X: x - 0.01, Y: 0.63, Z: -0.04}
	tip = Point3D{X: x - 0.02, Y: curledTipY, Z: -0.02}
	return pip, dip, tip
}

// PointLandmarks returns a hand with only the index finger extended.
func PointLandmarks() HandLandmarks {
	return PoseLandmarks(false, true, false, false, false)
}

// PinchLandmarks returns a hand with the thumb and index tips touching.
func PinchLandmarks() HandLandmarks {
	h := PoseLandmarks(true, false, false, false, false)
	thumb := h.Points[ThumbTip]
	h.Points[IndexTip] = Point3D{X: thumb.X + 0.01, Y: thumb.Y - 0.01}
	return h
}

// LShapeLandmarks returns a hand with thumb and index spread apart.
func LShapeLandmarks() HandLandmarks {
	return PoseLandmarks(true, true, false, false, false)
}

// TwoFingerLandmarks returns a hand with index and middle extended.
func TwoFingerLandmarks() HandLandmarks {
	return PoseLandmarks(false, true, true, false, false)
}

// ThreeFingerLandmarks returns a hand with index, middle and ring extended.
func ThreeFingerLandmarks() HandLandmarks {
	return PoseLandmarks(false, true, true, true, false)
}

// FistLandmarks returns a closed hand.
func FistLandmarks() HandLandmarks {
	return PoseLandmarks(false, false, false, false, false)
}

// OpenPalmLandmarks returns a hand with all five fingers extended.
func OpenPalmLandmarks() HandLandmarks {
	return PoseLandmarks(true, true, true, true, true)
}
