// Package config assembles process configuration from defaults, an optional
// .env file and MUDRA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/pointer"
)

// EnvPrefix prefixes every recognized environment variable.
const EnvPrefix = "MUDRA_"

// Config is the full process configuration.
type Config struct {
	Camera  capture.Config
	Motion  capture.MotionConfig
	Control control.Config

	// DataDir holds the database and, by default, the log file.
	DataDir string
	// DBPath is the SQLite file. Empty means DataDir/mudra.db.
	DBPath   string
	LogLevel string
	LogFile  string

	// Headless runs without the tray menu.
	Headless bool
	// DryRun logs actions instead of injecting them.
	DryRun   bool
	FailSafe bool
	// Persist restores and saves tunables in the settings table.
	Persist bool
}

// Default returns the built-in configuration.
func Default() Config {
	dataDir := ".mudra"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".mudra")
	}

	return Config{
		Camera:   capture.DefaultConfig(),
		Motion:   capture.DefaultMotionConfig(),
		Control:  control.DefaultConfig(),
		DataDir:  dataDir,
		LogLevel: "info",
		FailSafe: true,
		Persist:  true,
	}
}

// Load reads envFile into the environment when it exists, then applies
// MUDRA_* variables on top of the defaults. A missing envFile is not an
// error. The result is normalized.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg.Normalize(), nil
}

// Normalize clamps tunables and fills derived paths.
func (c Config) Normalize() Config {
	c.Control = c.Control.Normalize()
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "mudra.db")
	}
	return c
}

type lookupFunc func(key string) (string, bool)

// applyEnv overrides fields from the environment. Unparseable values are
// errors naming the variable; out-of-range values are left for Normalize.
func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.setInt("CAMERA", &c.Camera.DeviceID)
	e.setInt("CAMERA_WIDTH", &c.Camera.Width)
	e.setInt("CAMERA_HEIGHT", &c.Camera.Height)
	e.setInt("FPS", &c.Camera.FPS)
	e.setBool("MIRROR", &c.Camera.Mirror)
	e.setFloat("MOTION_THRESHOLD", &c.Motion.Threshold)
	e.setFloat("MOTION_MIN_AREA", &c.Motion.MinArea)
	e.setInt("MOTION_BACKGROUND", &c.Motion.BackgroundFrames)

	e.setString("DATA_DIR", &c.DataDir)
	e.setString("DB", &c.DBPath)
	e.setString("LOG_LEVEL", &c.LogLevel)
	e.setString("LOG_FILE", &c.LogFile)
	e.setBool("HEADLESS", &c.Headless)
	e.setBool("DRY_RUN", &c.DryRun)
	e.setBool("FAILSAFE", &c.FailSafe)
	e.setBool("PERSIST", &c.Persist)

	ctl := &c.Control
	e.setFloat("SENSITIVITY", &ctl.Sensitivity)
	e.setFloat("SMOOTHING", &ctl.Smoothing)
	e.setFloat("PINCH_THRESHOLD", &ctl.PinchThreshold)
	e.setInt("SCROLL_TICKS", &ctl.ScrollTicks)
	e.setDuration("CLICK_COOLDOWN", &ctl.ClickCooldown)
	e.setDuration("SCROLL_COOLDOWN", &ctl.ScrollCooldown)
	e.setDuration("DRAG_RELEASE", &ctl.DragReleaseTimeout)
	e.setFloat("MOTION_CLICK_AREA", &ctl.MotionClickArea)

	if v, ok := e.get("MAPPING"); ok {
		mode, err := pointer.ParseMode(v)
		if err != nil {
			e.fail("MAPPING", err)
		} else {
			ctl.Mapping = mode
		}
	}

	for _, f := range control.AllFeatures {
		on := ctl.Features.Enabled(f)
		e.setBool("FEATURE_"+strings.ToUpper(f.String()), &on)
		ctl.Features = ctl.Features.Set(f, on)
	}

	return errors.Join(e.errs...)
}

type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *envReader) fail(name string, err error) {
	e.errs = append(e.errs, fmt.Errorf("%s%s: %w", EnvPrefix, name, err))
}

func (e *envReader) setString(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) setInt(name string, dst *int) {
	if v, ok := e.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = n
	}
}

func (e *envReader) setFloat(name string, dst *float64) {
	if v, ok := e.get(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) setBool(name string, dst *bool) {
	if v, ok := e.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) setDuration(name string, dst *time.Duration) {
	if v, ok := e.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.fail(name, err)
			return
		}
		*dst = d
	}
}
