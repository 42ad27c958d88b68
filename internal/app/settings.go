package app

import (
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/pointer"
)

// Settings keys for the runtime-adjustable tunables.
const (
	KeySensitivity   = "sensitivity"
	KeySmoothing     = "smoothing"
	KeyMapping       = "mapping"
	keyFeaturePrefix = "feature."
)

// FeatureKey returns the settings key for a feature toggle.
func FeatureKey(f control.Feature) string {
	return keyFeaturePrefix + f.String()
}

// encodeSettings flattens the adjustable part of cfg into settings values.
func encodeSettings(cfg control.Config) map[string]string {
	values := map[string]string{
		KeySensitivity: strconv.FormatFloat(cfg.Sensitivity, 'g', -1, 64),
		KeySmoothing:   strconv.FormatFloat(cfg.Smoothing, 'g', -1, 64),
		KeyMapping:     string(cfg.Mapping),
	}
	for _, f := range control.AllFeatures {
		values[FeatureKey(f)] = strconv.FormatBool(cfg.Features.Enabled(f))
	}
	return values
}

// applySettings overlays saved values on cfg. Unparseable values are
// logged and skipped. Unknown keys are ignored.
func applySettings(cfg control.Config, saved map[string]string, log logrus.FieldLogger) control.Config {
	skip := func(key, value string, err error) {
		log.WithError(err).WithFields(logrus.Fields{"key": key, "value": value}).Warn("Ignoring saved setting")
	}

	if v, ok := saved[KeySensitivity]; ok {
		if f, err := strconv.ParseFloat(v, 64); err != nil {
			skip(KeySensitivity, v, err)
		} else {
			cfg.Sensitivity = f
		}
	}
	if v, ok := saved[KeySmoothing]; ok {
		if f, err := strconv.ParseFloat(v, 64); err != nil {
			skip(KeySmoothing, v, err)
		} else {
			cfg.Smoothing = f
		}
	}
	if v, ok := saved[KeyMapping]; ok {
		if mode, err := pointer.ParseMode(v); err != nil {
			skip(KeyMapping, v, err)
		} else {
			cfg.Mapping = mode
		}
	}
	for _, f := range control.AllFeatures {
		key := FeatureKey(f)
		v, ok := saved[key]
		if !ok {
			continue
		}
		on, err := strconv.ParseBool(v)
		if err != nil {
			skip(key, v, err)
			continue
		}
		cfg.Features = cfg.Features.Set(f, on)
	}

	return cfg.Normalize()
}

// saveSettings writes the controller's tunables. Callers hold a.mu.
func (a *App) saveSettings() {
	if !a.config.Persist || a.config.Store == nil {
		return
	}
	if err := a.config.Store.Settings().SetMany(encodeSettings(a.controller.Config())); err != nil {
		a.log.WithError(err).Warn("Failed to save settings")
	}
}
