package app

import (
	"errors"
	"image"
	"image/color"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"

	"github.com/ayusman/mudra/internal/calibration"
	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/logging"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/store"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

type harness struct {
	app      *App
	camera   *capture.MockCamera
	detector *detector.MockDetector
	injector *control.MockInjector
}

func newHarness(t *testing.T, s *store.Store) *harness {
	t.Helper()

	h := &harness{
		camera:   capture.NewBlankCamera(64, 48),
		detector: detector.NewMockDetector(),
		injector: control.NewMockInjector(),
	}
	h.app = New(Config{
		Store:    s,
		Control:  control.DefaultConfig(),
		Screen:   pointer.Screen{Width: 1920, Height: 1080},
		Injector: h.injector,
		Persist:  true,
		Log:      logging.Discard(),
	})
	require.NoError(t, h.app.SetDetector(h.detector))
	require.NoError(t, h.app.SetCamera(h.camera))
	return h
}

func (h *harness) step(t *testing.T, hand detector.HandLandmarks, at time.Time) control.Frame {
	t.Helper()
	h.detector.SetHands([]detector.HandLandmarks{hand})
	f, err := h.app.Step(at)
	require.NoError(t, err)
	return f
}

func TestApp_Step_IdleByDefault(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.camera.Open())

	f := h.step(t, detector.PointLandmarks(), t0)

	assert.True(t, f.Hand)
	assert.False(t, f.Mapped, "idle controller must not map the pointer")
	assert.Empty(t, f.Actions)
	assert.Empty(t, h.injector.Actions())
	assert.Equal(t, 1, h.detector.Calls())
}

func TestApp_Step_PointThenDrag(t *testing.T) {
	s := newTestStore(t)
	h := newHarness(t, s)
	require.NoError(t, h.camera.Open())
	h.app.beginSession()
	require.NotEmpty(t, h.app.Session())

	require.NoError(t, h.app.SetActive(true))

	f := h.step(t, detector.PointLandmarks(), t0)
	assert.True(t, f.Mapped)
	assert.Equal(t, 1, h.injector.Count(control.ActionMove))

	h.step(t, detector.PinchLandmarks(), t0.Add(33*time.Millisecond))
	h.step(t, detector.PinchLandmarks(), t0.Add(66*time.Millisecond))
	assert.Equal(t, 1, h.injector.Count(control.ActionDragBegin))
	assert.Equal(t, 1, h.injector.Count(control.ActionDragContinue))
	assert.True(t, h.app.Status().Dragging)

	// Pausing releases the held button.
	require.NoError(t, h.app.SetActive(false))
	assert.Equal(t, 1, h.injector.Count(control.ActionDragEnd))
	assert.False(t, h.app.Status().Dragging)

	entries, err := s.ActionLog().ListBySession(h.app.Session())
	require.NoError(t, err)

	var kinds []string
	for _, e := range entries {
		kinds = append(kinds, e.Kind)
	}
	assert.Equal(t, []string{"drag_begin", "drag_end"}, kinds, "only discrete actions are logged")
	assert.Equal(t, "pinch", entries[0].Gesture)
}

func TestApp_Step_NoHand(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.camera.Open())
	require.NoError(t, h.app.SetActive(true))

	h.detector.SetHands(nil)
	f, err := h.app.Step(t0)
	require.NoError(t, err)

	assert.False(t, f.Hand)
	assert.Empty(t, f.Actions)
}

func TestApp_Step_Errors(t *testing.T) {
	t.Run("camera closed", func(t *testing.T) {
		h := newHarness(t, nil)

		_, err := h.app.Step(t0)
		assert.ErrorIs(t, err, capture.ErrCameraNotOpen)
		assert.Equal(t, 0, h.detector.Calls())
	})

	t.Run("detector failure", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.camera.Open())
		boom := errors.New("boom")
		h.detector.SetError(boom)

		_, err := h.app.Step(t0)
		assert.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "detect hands")
	})

	t.Run("fail-safe pauses control", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.camera.Open())
		require.NoError(t, h.app.SetActive(true))
		h.injector.FailOn(control.ActionMove, control.ErrFailSafe)

		h.detector.SetHands([]detector.HandLandmarks{detector.PointLandmarks()})
		_, err := h.app.Step(t0)

		assert.ErrorIs(t, err, control.ErrFailSafe)
		assert.False(t, h.app.Active())
	})

	t.Run("refused drag begin is not logged", func(t *testing.T) {
		s := newTestStore(t)
		h := newHarness(t, s)
		require.NoError(t, h.camera.Open())
		h.app.beginSession()
		require.NoError(t, h.app.SetActive(true))
		h.injector.FailOn(control.ActionDragBegin, control.ErrFailSafe)

		h.detector.SetHands([]detector.HandLandmarks{detector.PinchLandmarks()})
		f, err := h.app.Step(t0)

		assert.ErrorIs(t, err, control.ErrFailSafe)
		assert.Empty(t, f.Actions)
		assert.Empty(t, h.injector.Actions())

		entries, err := s.ActionLog().ListBySession(h.app.Session())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestApp_MotionFallback(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that requires GoCV Mat creation")
	}

	background := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer background.Close()
	moved := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer moved.Close()
	gocv.Rectangle(&moved, image.Rect(280, 200, 360, 280), color.RGBA{R: 255, G: 255, B: 255}, -1)

	s := newTestStore(t)
	h := newHarness(t, s)
	cam := capture.NewMockCamera([]*gocv.Mat{&background, &moved, &moved}, false)
	require.NoError(t, h.app.SetCamera(cam))
	require.NoError(t, h.app.UseMotion(capture.NewMotionTracker(capture.MotionConfig{BackgroundFrames: 1})))
	assert.True(t, h.app.MotionTracking())

	require.NoError(t, cam.Open())
	h.app.beginSession()
	require.NoError(t, h.app.SetActive(true))

	f, err := h.app.Step(t0)
	require.NoError(t, err)
	assert.False(t, f.Hand, "first frame is learned as the background")

	f, err = h.app.Step(t0.Add(33 * time.Millisecond))
	require.NoError(t, err)
	assert.True(t, f.Hand)
	assert.Equal(t, gesture.LabelMotion, f.Gesture)
	assert.Equal(t, []control.ActionKind{control.ActionMove, control.ActionClick}, actionKinds(f.Actions))
	assert.Equal(t, 0, h.detector.Calls())

	f, err = h.app.Step(t0.Add(133 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, []control.ActionKind{control.ActionMove}, actionKinds(f.Actions), "click cooldown applies")

	entries, err := s.ActionLog().ListBySession(h.app.Session())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "click", entries[0].Kind)
	assert.Equal(t, "motion", entries[0].Gesture)

	require.NoError(t, h.app.SetDetector(h.detector))
	assert.False(t, h.app.MotionTracking())
}

func TestApp_Step_NoSource(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.camera.Open())
	require.NoError(t, h.app.SetDetector(nil))

	_, err := h.app.Step(t0)
	assert.ErrorIs(t, err, ErrNoSource)
}

func actionKinds(actions []control.Action) []control.ActionKind {
	out := make([]control.ActionKind, len(actions))
	for i, a := range actions {
		out[i] = a.Kind
	}
	return out
}

func TestApp_OnFrame(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.camera.Open())

	var got []control.Frame
	h.app.OnFrame(func(f control.Frame) { got = append(got, f) })

	h.step(t, detector.FistLandmarks(), t0)
	h.step(t, detector.OpenPalmLandmarks(), t0.Add(33*time.Millisecond))

	require.Len(t, got, 2)
	assert.Equal(t, "fist", got[0].Gesture.String())
	assert.Equal(t, "open_hand", got[1].Gesture.String())
}

func TestApp_Calibration(t *testing.T) {
	h := newHarness(t, nil)
	require.NoError(t, h.camera.Open())

	_, err := h.app.CaptureCalibration()
	assert.ErrorIs(t, err, calibration.ErrNotActive)

	require.NoError(t, h.app.StartCalibration())
	_, err = h.app.CaptureCalibration()
	assert.ErrorIs(t, err, calibration.ErrNoHand, "no frame has been seen yet")

	h.step(t, detector.PointLandmarks(), t0)
	done, err := h.app.CaptureCalibration()
	require.NoError(t, err)
	assert.False(t, done)
	assert.True(t, h.app.Status().Calibrating)

	h.app.AbortCalibration()
	assert.False(t, h.app.Status().Calibrating)
	assert.False(t, h.app.Status().Calibrated)
}

func TestApp_SettingsPersist(t *testing.T) {
	s := newTestStore(t)

	first := newHarness(t, s).app
	assert.InDelta(t, 1.5, first.AdjustSensitivity(-0.5), 1e-9)
	assert.InDelta(t, 0.5, first.AdjustSmoothing(-0.2), 1e-9)
	assert.False(t, first.ToggleFeature(control.FeatureZoom))
	assert.Equal(t, pointer.ModeZone, first.ToggleMapping())

	second := newHarness(t, s).app
	cfg := second.ControlConfig()

	assert.InDelta(t, 1.5, cfg.Sensitivity, 1e-9)
	assert.InDelta(t, 0.5, cfg.Smoothing, 1e-9)
	assert.False(t, cfg.Features.Zoom)
	assert.True(t, cfg.Features.Click)
	assert.Equal(t, pointer.ModeZone, cfg.Mapping)
}

func TestApp_SetTuning(t *testing.T) {
	s := newTestStore(t)
	a := newHarness(t, s).app

	a.AdjustSensitivity(0.5)
	a.AdjustSmoothing(0.1)
	assert.Equal(t, 1.3, a.SetSensitivity(1.3))
	assert.Equal(t, 0.3, a.SetSmoothing(0.3))

	all, err := s.Settings().All()
	require.NoError(t, err)
	assert.Equal(t, "1.3", all[KeySensitivity])
	assert.Equal(t, "0.3", all[KeySmoothing])

	assert.Equal(t, pointer.MaxSensitivity, a.SetSensitivity(10))
	assert.Equal(t, pointer.MaxSensitivity, a.ControlConfig().Sensitivity)
}

func TestApp_SettingsNotPersistedWithoutFlag(t *testing.T) {
	s := newTestStore(t)
	a := New(Config{
		Store:   s,
		Control: control.DefaultConfig(),
		Screen:  pointer.Screen{Width: 800, Height: 600},
		Log:     logging.Discard(),
	})

	a.AdjustSensitivity(0.5)

	all, err := s.Settings().All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestApplySettings(t *testing.T) {
	saved := map[string]string{
		KeySensitivity: "9",
		KeySmoothing:   "smooth",
		KeyMapping:     "polar",
		"unrelated":    "x",
	}
	saved[FeatureKey(control.FeatureScroll)] = "false"
	saved[FeatureKey(control.FeatureDrag)] = "maybe"

	cfg := applySettings(control.DefaultConfig(), saved, logging.Discard())

	assert.Equal(t, pointer.MaxSensitivity, cfg.Sensitivity, "saved values are clamped")
	assert.Equal(t, pointer.DefaultSmoothing, cfg.Smoothing, "bad value keeps default")
	assert.Equal(t, pointer.ModeDirect, cfg.Mapping)
	assert.False(t, cfg.Features.Scroll)
	assert.True(t, cfg.Features.Drag)
}

func TestEncodeSettings_RoundTrip(t *testing.T) {
	cfg := control.DefaultConfig()
	cfg.Sensitivity = 0.7
	cfg.Features.RightClick = false
	cfg.Mapping = pointer.ModeZone

	got := applySettings(control.DefaultConfig(), encodeSettings(cfg), logging.Discard())
	assert.Equal(t, cfg, got)
}

func TestApp_StartStop(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	s := newTestStore(t)
	h := newHarness(t, s)
	h.camera.SetFPS(100)

	require.NoError(t, h.app.Start())
	assert.True(t, h.app.Running())
	assert.ErrorIs(t, h.app.SetCamera(capture.NewBlankCamera(8, 8)), ErrRunning)

	session := h.app.Session()
	require.NotEmpty(t, session)

	require.Eventually(t, func() bool { return h.detector.Calls() > 2 }, 2*time.Second, 10*time.Millisecond)

	h.app.Stop()
	assert.False(t, h.app.Running())
	assert.False(t, h.camera.IsOpen())

	sess, err := s.Sessions().GetByID(session)
	require.NoError(t, err)
	assert.NotNil(t, sess.EndedAt)
	assert.Equal(t, 1920, sess.ScreenWidth)
}
