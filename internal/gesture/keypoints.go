// Package gesture turns hand landmarks into the discrete gestures that drive
// the pointer: key point extraction, finger state, rule-based classification
// and the short-history trackers for scroll and zoom.
package gesture

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/mudra/internal/detector"
)

// ErrMalformedLandmarks is returned when a detector reports fewer landmarks
// than the MediaPipe indexing scheme requires.
var ErrMalformedLandmarks = errors.New("malformed landmarks")

// KeyPoints is the reduced set of landmarks the controller works from.
type KeyPoints struct {
	Wrist      detector.Point3D
	ThumbTip   detector.Point3D
	ThumbJoint detector.Point3D
	IndexTip   detector.Point3D
	IndexJoint detector.Point3D
	MiddleTip  detector.Point3D
	RingTip    detector.Point3D
	PinkyTip   detector.Point3D
	PalmCenter detector.Point3D
}

// BuildKeyPoints extracts KeyPoints from a full landmark list.
func BuildKeyPoints(points []detector.Point3D) (KeyPoints, error) {
	if len(points) < detector.NumLandmarks {
		return KeyPoints{}, fmt.Errorf("%w: got %d points, need %d",
			ErrMalformedLandmarks, len(points), detector.NumLandmarks)
	}

	return KeyPoints{
		Wrist:      points[detector.Wrist],
		ThumbTip:   points[detector.ThumbTip],
		ThumbJoint: points[detector.ThumbIP],
		IndexTip:   points[detector.IndexTip],
		IndexJoint: points[detector.IndexPIP],
		MiddleTip:  points[detector.MiddleTip],
		RingTip:    points[detector.RingTip],
		PinkyTip:   points[detector.PinkyTip],
		PalmCenter: points[detector.MiddleMCP],
	}, nil
}

// PinchDistance is the planar distance between the thumb and index tips.
func (k KeyPoints) PinchDistance() float64 {
	return planarDistance(k.ThumbTip, k.IndexTip)
}

// SpreadDistance is the planar distance between the index and ring tips,
// used as the zoom reference.
func (k KeyPoints) SpreadDistance() float64 {
	return planarDistance(k.IndexTip, k.RingTip)
}

// planarDistance ignores depth; Z from the detector is too noisy to use.
func planarDistance(a, b detector.Point3D) float64 {
	return floats.Distance([]float64{a.X, a.Y}, []float64{b.X, b.Y}, 2)
}
