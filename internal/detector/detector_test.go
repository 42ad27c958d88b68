package detector

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestMockDetector(t *testing.T) {
	t.Run("returns empty hands by default", func(t *testing.T) {
		mock := NewMockDetector()

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if hands != nil {
			t.Errorf("expected nil hands, got %v", hands)
		}
	})

	t.Run("returns configured hands", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetHands([]HandLandmarks{PointLandmarks(), OpenPalmLandmarks()})

		hands, err := mock.Detect(nil)

		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()

		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		hands, err := mock.Detect(nil)

		if err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
		if hands != nil {
			t.Errorf("expected nil hands when error is set, got %v", hands)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipeDetector)(nil)
	})
}

func TestPrimary(t *testing.T) {
	t.Run("nil when no hands", func(t *testing.T) {
		if got := Primary(nil); got != nil {
			t.Errorf("expected nil, got %+v", got)
		}
	})

	t.Run("highest score wins", func(t *testing.T) {
		low := PointLandmarks()
		low.Score = 0.6
		high := FistLandmarks()
		high.Score = 0.9

		got := Primary([]HandLandmarks{low, high})
		if got == nil || got.Score != 0.9 {
			t.Fatalf("expected the 0.9 hand, got %+v", got)
		}
	})

	t.Run("ties keep detector order", func(t *testing.T) {
		first := PointLandmarks()
		first.Handedness = "Left"
		second := PointLandmarks()

		got := Primary([]HandLandmarks{first, second})
		if got.Handedness != "Left" {
			t.Errorf("expected first hand, got %s", got.Handedness)
		}
	})
}

func TestHandLandmarks_Complete(t *testing.T) {
	full := PointLandmarks()
	if !full.Complete() {
		t.Error("fixture should be complete")
	}

	short := HandLandmarks{Points: make([]Point3D, IndexTip)}
	if short.Complete() {
		t.Error("hand with 8 points should not be complete")
	}

	var missing *HandLandmarks
	if missing.Complete() {
		t.Error("nil hand should not be complete")
	}
}

func TestPoseFixtures(t *testing.T) {
	t.Run("pinch tips are close", func(t *testing.T) {
		h := PinchLandmarks()
		dx := h.Points[ThumbTip].X - h.Points[IndexTip].X
		dy := h.Points[ThumbTip].Y - h.Points[IndexTip].Y
		if dx*dx+dy*dy >= 0.03*0.03 {
			t.Errorf("pinch tips too far apart: dx=%f dy=%f", dx, dy)
		}
	})

	t.Run("extended fingers reach above the palm", func(t *testing.T) {
		h := OpenPalmLandmarks()
		palm := h.Points[MiddleMCP].Y
		for _, tip := range []int{MiddleTip, RingTip, PinkyTip} {
			if h.Points[tip].Y >= palm {
				t.Errorf("tip %d should be above palm center", tip)
			}
		}
	})

	t.Run("curled fingers stay below the palm", func(t *testing.T) {
		h := FistLandmarks()
		palm := h.Points[MiddleMCP].Y
		for _, tip := range []int{MiddleTip, RingTip, PinkyTip} {
			if h.Points[tip].Y <= palm {
				t.Errorf("tip %d should be below palm center", tip)
			}
		}
	})

	t.Run("fixtures do not share backing arrays", func(t *testing.T) {
		a := PointLandmarks()
		b := PointLandmarks()
		a.Points[IndexTip].Y = 0.99
		if b.Points[IndexTip].Y == 0.99 {
			t.Error("fixtures alias the same point slice")
		}
	})
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte{0xff, 0xd8, 0xff}

	if err := writeFrame(&buf, payload); err != nil {
		t.Fatalf("writeFrame() error = %v", err)
	}

	out := buf.Bytes()
	if got := binary.BigEndian.Uint32(out[:4]); got != uint32(len(payload)) {
		t.Errorf("length prefix = %d, want %d", got, len(payload))
	}
	if !bytes.Equal(out[4:], payload) {
		t.Errorf("payload = %v, want %v", out[4:], payload)
	}
}

func TestParseResponse(t *testing.T) {
	t.Run("short point lists pass through", func(t *testing.T) {
		line := []byte(`{"hands":[{"points":[{"x":0.1,"y":0.2,"z":0}],"handedness":"Right","score":0.9}]}` + "\n")

		hands, err := parseResponse(line)
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 1 || len(hands[0].Points) != 1 {
			t.Fatalf("unexpected hands: %+v", hands)
		}
		if hands[0].Complete() {
			t.Error("single point hand should not be complete")
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := parseResponse([]byte(`{"hands":[]}`))
		if err != nil {
			t.Fatalf("parseResponse() error = %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("invalid json", func(t *testing.T) {
		if _, err := parseResponse([]byte(`{`)); err == nil {
			t.Error("expected error for invalid json")
		}
	})
}
