// Package tray provides the system tray menu for Mudra mouse control.
package tray

import (
	"fmt"
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/pointer"
)

// Controls is the command surface the tray drives.
type Controls interface {
	ToggleActive() (bool, error)
	ToggleFeature(f control.Feature) bool
	AdjustSensitivity(delta float64) float64
	AdjustSmoothing(delta float64) float64
	ToggleMapping() pointer.Mode
	StartCalibration() error
	CaptureCalibration() (bool, error)
	AbortCalibration()
	Reset() error
	Status() control.Status
}

// Tray represents the system tray application.
type Tray struct {
	controls Controls
	log      logrus.FieldLogger
	onQuit   func()
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuActive   *systray.MenuItem
	menuGesture  *systray.MenuItem
	menuTuning   *systray.MenuItem
	menuMapping  *systray.MenuItem
	menuCalib    *systray.MenuItem
	menuFeatures map[control.Feature]*systray.MenuItem
}

// New creates a Tray driving controls.
func New(controls Controls, log logrus.FieldLogger) *Tray {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Tray{
		controls:     controls,
		log:          log,
		menuFeatures: make(map[control.Feature]*systray.MenuItem),
	}
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// Quit closes the tray and unblocks Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("Mudra")
	systray.SetTooltip("Mudra hand gesture mouse control")

	status := t.controls.Status()

	t.mu.Lock()
	t.menuActive = systray.AddMenuItem(activeTitle(status.Active), "Toggle mouse control")
	systray.AddSeparator()

	t.menuGesture = systray.AddMenuItem(gestureTitle(status), "Current gesture")
	t.menuGesture.Disable()
	t.menuTuning = systray.AddMenuItem(tuningTitle(status), "Pointer tuning")
	t.menuTuning.Disable()
	systray.AddSeparator()

	features := systray.AddMenuItem("Gestures", "Enable or disable gesture actions")
	for _, f := range control.AllFeatures {
		t.menuFeatures[f] = features.AddSubMenuItemCheckbox(featureTitle(f), "", status.Features.Enabled(f))
	}

	tuning := systray.AddMenuItem("Tuning", "Adjust pointer response")
	sensUp := tuning.AddSubMenuItem("Sensitivity +", "")
	sensDown := tuning.AddSubMenuItem("Sensitivity -", "")
	smoothUp := tuning.AddSubMenuItem("Smoothing +", "")
	smoothDown := tuning.AddSubMenuItem("Smoothing -", "")
	t.menuMapping = tuning.AddSubMenuItem(mappingTitle(status.Mapping), "Switch pointer mapping")

	t.menuCalib = systray.AddMenuItem(calibrationTitle(status), "Calibrate the active zone")
	calStart := t.menuCalib.AddSubMenuItem("Start", "Begin two-point calibration")
	calCapture := t.menuCalib.AddSubMenuItem("Capture point", "Record the index fingertip")
	calAbort := t.menuCalib.AddSubMenuItem("Abort", "Cancel calibration")
	menuReset := systray.AddMenuItem("Reset", "Clear calibration and release controls")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Mudra")
	t.mu.Unlock()

	// Feature items fan in to one channel so a single loop serves the menu.
	featureCh := make(chan control.Feature)
	for f, item := range t.menuFeatures {
		go func(f control.Feature, ch <-chan struct{}) {
			for range ch {
				featureCh <- f
			}
		}(f, item.ClickedCh)
	}

	go func() {
		for {
			select {
			case <-t.menuActive.ClickedCh:
				t.handleToggle()
			case f := <-featureCh:
				t.handleFeature(f)
			case <-sensUp.ClickedCh:
				t.controls.AdjustSensitivity(control.AdjustStep)
				t.Refresh()
			case <-sensDown.ClickedCh:
				t.controls.AdjustSensitivity(-control.AdjustStep)
				t.Refresh()
			case <-smoothUp.ClickedCh:
				t.controls.AdjustSmoothing(control.AdjustStep)
				t.Refresh()
			case <-smoothDown.ClickedCh:
				t.controls.AdjustSmoothing(-control.AdjustStep)
				t.Refresh()
			case <-t.menuMapping.ClickedCh:
				t.controls.ToggleMapping()
				t.Refresh()
			case <-calStart.ClickedCh:
				t.handleCalibrationStart()
			case <-calCapture.ClickedCh:
				t.handleCalibrationCapture()
			case <-calAbort.ClickedCh:
				t.controls.AbortCalibration()
				t.Refresh()
			case <-menuReset.ClickedCh:
				t.handleReset()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) onExit() {}

func (t *Tray) handleToggle() {
	if _, err := t.controls.ToggleActive(); err != nil {
		t.log.WithError(err).Warn("Toggle released controls with an error")
	}
	t.Refresh()
}

func (t *Tray) handleFeature(f control.Feature) {
	t.controls.ToggleFeature(f)
	t.Refresh()
}

func (t *Tray) handleCalibrationStart() {
	if err := t.controls.StartCalibration(); err != nil {
		t.log.WithError(err).Warn("Calibration start released controls with an error")
	}
	t.Refresh()
}

func (t *Tray) handleCalibrationCapture() {
	if _, err := t.controls.CaptureCalibration(); err != nil {
		t.log.WithError(err).Warn("Calibration capture failed")
	}
	t.Refresh()
}

func (t *Tray) handleReset() {
	if err := t.controls.Reset(); err != nil {
		t.log.WithError(err).Warn("Reset released controls with an error")
	}
	t.Refresh()
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}

	systray.Quit()
}

// Refresh redraws every menu title from the current status. It is a no-op
// before the menu has been built.
func (t *Tray) Refresh() {
	t.Update(t.controls.Status())
}

// Update redraws the menu from status.
func (t *Tray) Update(status control.Status) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuActive == nil {
		return
	}

	t.menuActive.SetTitle(activeTitle(status.Active))
	t.menuGesture.SetTitle(gestureTitle(status))
	t.menuTuning.SetTitle(tuningTitle(status))
	t.menuMapping.SetTitle(mappingTitle(status.Mapping))
	t.menuCalib.SetTitle(calibrationTitle(status))
	for f, item := range t.menuFeatures {
		if status.Features.Enabled(f) {
			item.Check()
		} else {
			item.Uncheck()
		}
	}
}

func activeTitle(active bool) string {
	if active {
		return "● Mouse control on"
	}
	return "○ Mouse control off"
}

func gestureTitle(s control.Status) string {
	if !s.Hand {
		return "Gesture: no hand"
	}
	title := "Gesture: " + s.Gesture.String()
	if s.Dragging {
		title += " (dragging)"
	}
	return title
}

func tuningTitle(s control.Status) string {
	return fmt.Sprintf("Sensitivity %.1f  Smoothing %.1f", s.Sensitivity, s.Smoothing)
}

func mappingTitle(m pointer.Mode) string {
	if m == pointer.ModeZone {
		return "Mapping: zone"
	}
	return "Mapping: direct"
}

func calibrationTitle(s control.Status) string {
	switch {
	case s.Calibrating:
		return "Calibrate: capture " + s.CalibrationStep.String()
	case s.Calibrated:
		return "Calibrate (done)"
	default:
		return "Calibrate"
	}
}

func featureTitle(f control.Feature) string {
	switch f {
	case control.FeatureClick:
		return "Click"
	case control.FeatureRightClick:
		return "Right click"
	case control.FeatureScroll:
		return "Scroll"
	case control.FeatureDrag:
		return "Drag"
	case control.FeatureZoom:
		return "Zoom"
	default:
		return f.String()
	}
}
