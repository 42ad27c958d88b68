package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/gesture"
	"github.com/ayusman/mudra/internal/store"
)

// runPipeline reads frames at the camera rate until stopCh closes.
//
// Each tick:
// 1. Read a mirrored frame
// 2. Run hand detection, or motion tracking without a detector
// 3. Feed the primary hand or moving region (or its absence) to the controller
// 4. Record discrete actions in the session log
func (a *App) runPipeline(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	fps := a.camera.FPS()
	if fps <= 0 {
		fps = 1
	}
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	var readErrors int
	for {
		select {
		case <-stopCh:
			return
		case now := <-ticker.C:
			_, err := a.Step(now)
			switch {
			case err == nil:
				readErrors = 0
			case errors.Is(err, control.ErrFailSafe):
				a.log.WithError(err).Warn("Mouse control paused by fail-safe, re-enable to continue")
			case errors.Is(err, gesture.ErrMalformedLandmarks):
				a.log.WithError(err).Debug("Dropped frame")
			default:
				readErrors++
				// Log the first failure of a run and then every second's worth.
				if readErrors == 1 || readErrors%fps == 0 {
					a.log.WithError(err).WithField("consecutive", readErrors).Warn("Frame processing failed")
				}
			}
		}
	}
}

// Step runs one capture, detect and control cycle at time now. Without a
// hand detector the frame goes to the motion tracker instead.
func (a *App) Step(now time.Time) (control.Frame, error) {
	a.mu.Lock()
	cam, det, tracker := a.camera, a.detector, a.motion
	a.mu.Unlock()

	if det == nil && tracker == nil {
		return control.Frame{}, ErrNoSource
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		return control.Frame{}, fmt.Errorf("read frame: %w", err)
	}

	var (
		hand   *detector.HandLandmarks
		motion capture.Motion
	)
	if det != nil {
		hands, derr := det.Detect(mat)
		mat.Close()
		if derr != nil {
			return control.Frame{}, fmt.Errorf("detect hands: %w", derr)
		}
		hand = detector.Primary(hands)
	} else {
		motion = tracker.Track(mat)
		mat.Close()
	}

	a.mu.Lock()
	var frame control.Frame
	if det != nil {
		frame, err = a.controller.Process(hand, now)
	} else {
		frame, err = a.controller.ProcessMotion(motion, now)
	}
	a.recordFrame(frame)
	onFrame := a.onFrame
	a.mu.Unlock()

	if onFrame != nil {
		onFrame(frame)
	}
	return frame, err
}

func (a *App) recordFrame(f control.Frame) {
	a.recordAs(f.Actions, f.Gesture)
}

func (a *App) record(actions []control.Action) {
	a.recordAs(actions, a.controller.Status().Gesture)
}

// recordAs appends the discrete actions to the session log. Pointer motion
// is not logged.
func (a *App) recordAs(actions []control.Action, label gesture.Label) {
	if a.config.Store == nil || a.session == "" {
		return
	}

	log := a.config.Store.ActionLog()
	for _, act := range actions {
		if !act.Kind.Discrete() {
			continue
		}

		entry := &store.LogEntry{
			SessionID: a.session,
			Kind:      act.Kind.String(),
			Gesture:   label.String(),
			X:         act.X,
			Y:         act.Y,
			Ticks:     act.Ticks,
		}
		if act.Kind == control.ActionZoom {
			entry.Detail = act.Zoom.String()
		}
		if err := log.Append(entry); err != nil {
			a.log.WithError(err).WithField("action", act.Kind.String()).Warn("Failed to record action")
		}
	}
}
