package app

import (
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/pointer"
)

// SetActive enables or pauses mouse control.
func (a *App) SetActive(active bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	actions, err := a.controller.SetActive(active)
	a.record(actions)
	return err
}

// ToggleActive flips mouse control and returns the new state.
func (a *App) ToggleActive() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	actions, err := a.controller.ToggleActive()
	a.record(actions)
	return a.controller.Active(), err
}

// Active reports whether mouse control is enabled.
func (a *App) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.controller.Active()
}

// ToggleFeature flips one action family and returns its new state.
func (a *App) ToggleFeature(f control.Feature) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	on := a.controller.ToggleFeature(f)
	a.saveSettings()
	return on
}

// AdjustSensitivity changes the direct-mapping gain by delta.
func (a *App) AdjustSensitivity(delta float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := a.controller.AdjustSensitivity(delta)
	a.saveSettings()
	return v
}

// AdjustSmoothing changes the smoothing factor by delta.
func (a *App) AdjustSmoothing(delta float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	v := a.controller.AdjustSmoothing(delta)
	a.saveSettings()
	return v
}

// SetSensitivity sets the direct-mapping gain, clamped, and saves it.
func (a *App) SetSensitivity(v float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	v = a.controller.SetSensitivity(v)
	a.saveSettings()
	return v
}

// SetSmoothing sets the smoothing factor, clamped, and saves it.
func (a *App) SetSmoothing(v float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	v = a.controller.SetSmoothing(v)
	a.saveSettings()
	return v
}

// SetMapping selects direct or zone mapping.
func (a *App) SetMapping(mode pointer.Mode) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.controller.SetMapping(mode)
	a.saveSettings()
}

// ToggleMapping switches between direct and zone mapping.
func (a *App) ToggleMapping() pointer.Mode {
	a.mu.Lock()
	defer a.mu.Unlock()

	mode := pointer.ModeZone
	if a.controller.Config().Mapping == pointer.ModeZone {
		mode = pointer.ModeDirect
	}
	a.controller.SetMapping(mode)
	a.saveSettings()
	return mode
}

// StartCalibration begins two-point calibration.
func (a *App) StartCalibration() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	actions, err := a.controller.StartCalibration()
	a.record(actions)
	return err
}

// CaptureCalibration records the current fingertip for the pending
// calibration step and reports whether calibration is complete.
func (a *App) CaptureCalibration() (bool, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.controller.CaptureCalibration()
}

// AbortCalibration cancels calibration in progress.
func (a *App) AbortCalibration() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.controller.AbortCalibration()
}

// Reset returns the controller to its uncalibrated state. A motion tracker
// relearns its background.
func (a *App) Reset() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	actions, err := a.controller.Reset()
	a.record(actions)
	if a.motion != nil {
		a.motion.Reset()
	}
	return err
}

// Status returns a snapshot of the controller.
func (a *App) Status() control.Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.controller.Status()
}

// ControlConfig returns the controller's current tunables.
func (a *App) ControlConfig() control.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.controller.Config()
}
