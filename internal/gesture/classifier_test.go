package gesture

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/mudra/internal/detector"
)

func keyPointsOf(t *testing.T, h detector.HandLandmarks) KeyPoints {
	t.Helper()
	k, err := BuildKeyPoints(h.Points)
	require.NoError(t, err)
	return k
}

func TestBuildKeyPoints(t *testing.T) {
	t.Run("maps MediaPipe indices to roles", func(t *testing.T) {
		points := make([]detector.Point3D, detector.NumLandmarks)
		for i := range points {
			points[i] = detector.Point3D{X: float64(i) / 100, Y: float64(i) / 50, Z: float64(i)}
		}

		got, err := BuildKeyPoints(points)
		require.NoError(t, err)

		want := KeyPoints{
			Wrist:      points[0],
			ThumbJoint: points[3],
			ThumbTip:   points[4],
			IndexJoint: points[6],
			IndexTip:   points[8],
			PalmCenter: points[9],
			MiddleTip:  points[12],
			RingTip:    points[16],
			PinkyTip:   points[20],
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("BuildKeyPoints() mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("rejects short landmark lists", func(t *testing.T) {
		_, err := BuildKeyPoints(make([]detector.Point3D, detector.PinkyTip))
		assert.True(t, errors.Is(err, ErrMalformedLandmarks), "got %v", err)
	})

	t.Run("accepts extra landmarks", func(t *testing.T) {
		_, err := BuildKeyPoints(make([]detector.Point3D, detector.NumLandmarks+2))
		assert.NoError(t, err)
	})
}

func TestDetectFingers(t *testing.T) {
	tests := []struct {
		name string
		hand detector.HandLandmarks
		want FingerState
	}{
		{"fist", detector.FistLandmarks(), FingerState{}},
		{"point", detector.PointLandmarks(), FingerState{Index: true}},
		{"two fingers", detector.TwoFingerLandmarks(), FingerState{Index: true, Middle: true}},
		{"three fingers", detector.ThreeFingerLandmarks(), FingerState{Index: true, Middle: true, Ring: true}},
		{"l shape", detector.LShapeLandmarks(), FingerState{Thumb: true, Index: true}},
		{"open palm", detector.OpenPalmLandmarks(), FingerState{true, true, true, true, true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectFingers(keyPointsOf(t, tt.hand))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFingerState(t *testing.T) {
	s := FingerState{Index: true, Middle: true}

	assert.Equal(t, 2, s.Count())
	assert.True(t, s.Only(Index, Middle))
	assert.True(t, s.Only(Middle, Index))
	assert.False(t, s.Only(Index))
	assert.False(t, s.Only(Index, Middle, Ring))
	assert.True(t, s.Extended(Middle))
	assert.False(t, s.Extended(Thumb))
	assert.Equal(t, "ring", Ring.String())
}

func TestClassifier_Fixtures(t *testing.T) {
	c := NewClassifier(DefaultPinchThreshold)

	tests := []struct {
		name string
		hand detector.HandLandmarks
		want Label
	}{
		{"pinch", detector.PinchLandmarks(), LabelPinch},
		{"l shape", detector.LShapeLandmarks(), LabelRightClick},
		{"two fingers", detector.TwoFingerLandmarks(), LabelScroll},
		{"three fingers", detector.ThreeFingerLandmarks(), LabelZoom},
		{"point", detector.PointLandmarks(), LabelPoint},
		{"fist", detector.FistLandmarks(), LabelFist},
		{"open palm", detector.OpenPalmLandmarks(), LabelOpenHand},
		{"four fingers", detector.PoseLandmarks(false, true, true, true, true), LabelOpenHand},
		{"index and pinky", detector.PoseLandmarks(false, true, false, false, true), LabelUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := c.Classify(keyPointsOf(t, tt.hand))
			assert.Equal(t, tt.want, got, "got %s", got)
		})
	}
}

func TestClassifier_PinchScenario(t *testing.T) {
	k := KeyPoints{
		ThumbTip:   detector.Point3D{X: 0.50, Y: 0.50},
		ThumbJoint: detector.Point3D{X: 0.45, Y: 0.50},
		IndexTip:   detector.Point3D{X: 0.51, Y: 0.49},
		IndexJoint: detector.Point3D{X: 0.50, Y: 0.55},
	}

	assert.InDelta(t, 0.01414, k.PinchDistance(), 1e-4)

	got, fingers := NewClassifier(DefaultPinchThreshold).Classify(k)
	assert.Equal(t, LabelPinch, got)
	assert.True(t, fingers.Extended(Thumb))
}

func TestClassifier_PinchBeatsFist(t *testing.T) {
	k := keyPointsOf(t, detector.PinchLandmarks())

	fingers := DetectFingers(k)
	require.LessOrEqual(t, fingers.Count(), 1, "fixture should also satisfy the fist test")

	got, _ := NewClassifier(DefaultPinchThreshold).Classify(k)
	assert.Equal(t, LabelPinch, got)
}

func TestClassifier_LShapeNeedsSeparation(t *testing.T) {
	// Thumb and index extended, tips 0.045 apart: too far for a pinch and too
	// close for the L gesture.
	k := KeyPoints{
		ThumbJoint: detector.Point3D{X: 0.40, Y: 0.50},
		ThumbTip:   detector.Point3D{X: 0.50, Y: 0.50},
		IndexJoint: detector.Point3D{X: 0.55, Y: 0.60},
		IndexTip:   detector.Point3D{X: 0.5318, Y: 0.4682},
	}

	got, fingers := NewClassifier(DefaultPinchThreshold).Classify(k)
	require.True(t, fingers.Only(Thumb, Index))
	assert.Equal(t, LabelUnknown, got)
}

func TestClassifier_ThresholdIsConfigurable(t *testing.T) {
	k := keyPointsOf(t, detector.FistLandmarks())

	got, _ := NewClassifier(DefaultPinchThreshold).Classify(k)
	assert.Equal(t, LabelFist, got)

	got, _ = NewClassifier(0.05).Classify(k)
	assert.Equal(t, LabelPinch, got)
}

func TestLabel_String(t *testing.T) {
	assert.Equal(t, "right_click_gesture", LabelRightClick.String())
	assert.Equal(t, "open_hand", LabelOpenHand.String())
	assert.Equal(t, "motion", LabelMotion.String())
	assert.Equal(t, "unknown", Label(99).String())
}
