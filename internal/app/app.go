// Package app wires the camera, hand detector, gesture controller and
// action injector into the running mouse-control loop.
package app

import (
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/capture"
	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/detector"
	"github.com/ayusman/mudra/internal/pointer"
	"github.com/ayusman/mudra/internal/store"
)

var (
	// ErrRunning is returned when a component is swapped while the loop runs.
	ErrRunning = errors.New("pipeline is running")
	// ErrNoSource is returned by Step when neither a hand detector nor a
	// motion tracker is set.
	ErrNoSource = errors.New("no hand detector or motion tracker")
)

// Config holds configuration options for the application.
type Config struct {
	// Store persists settings and the action log. It may be nil.
	Store  *store.Store
	Camera capture.Config
	// Motion configures the tracker used when hand detection is unavailable.
	Motion  capture.MotionConfig
	Control control.Config
	// Screen is the target display. Zero means ask the injector, then fall
	// back to 1920x1080.
	Screen pointer.Screen
	// Injector performs actions. Nil keeps actions inside the controller.
	Injector control.Injector
	// Persist restores tunables from Store on start and saves them on change.
	Persist bool
	Log     logrus.FieldLogger
}

// Locator reports the current cursor position. Injectors that implement it
// seed the pointer so control starts where the cursor already is.
type Locator interface {
	Location() (int, int)
}

// ScreenSizer reports the display size.
type ScreenSizer interface {
	Screen() pointer.Screen
}

var fallbackScreen = pointer.Screen{Width: 1920, Height: 1080}

// App is the main application that turns camera frames into mouse actions.
type App struct {
	config     Config
	log        logrus.FieldLogger
	camera     capture.Camera
	detector   detector.Detector
	motion     *capture.MotionTracker
	controller *control.Controller
	screen     pointer.Screen

	mu      sync.Mutex
	session string
	onFrame func(control.Frame)

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates an App. Settings saved in the store override config.Control
// when config.Persist is set.
func New(config Config) *App {
	log := config.Log
	if log == nil {
		log = logrus.StandardLogger()
	}

	a := &App{
		config: config,
		log:    log,
		camera: capture.NewCamera(config.Camera),
		screen: resolveScreen(config.Screen, config.Injector),
	}

	ctl := config.Control
	if config.Persist && config.Store != nil {
		saved, err := config.Store.Settings().All()
		if err != nil {
			log.WithError(err).Warn("Failed to load saved settings")
		} else {
			ctl = applySettings(ctl, saved, log)
		}
	}

	a.controller = control.New(ctl, a.screen, config.Injector, log)
	if loc, ok := config.Injector.(Locator); ok {
		a.controller.SeedPointer(loc.Location())
	}

	if mp, err := detector.NewMediaPipeDetector(detector.DefaultConfig(), log); err == nil {
		a.detector = mp
		log.Info("Using MediaPipe hand detection")
	} else {
		log.WithError(err).Warn("MediaPipe not available, falling back to motion tracking")
		a.motion = capture.NewMotionTracker(config.Motion)
	}

	log.WithFields(logrus.Fields{
		"screen":  a.screen.String(),
		"mapping": string(a.controller.Config().Mapping),
	}).Info("Controller ready")
	return a
}

func resolveScreen(screen pointer.Screen, injector control.Injector) pointer.Screen {
	if screen.Valid() {
		return screen
	}
	if s, ok := injector.(ScreenSizer); ok {
		if sz := s.Screen(); sz.Valid() {
			return sz
		}
	}
	return fallbackScreen
}

// SetDetector replaces the frame source with a hand detector and closes
// the one it replaces. It fails while the loop runs.
func (a *App) SetDetector(d detector.Detector) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh != nil {
		return ErrRunning
	}
	a.closeSource()
	a.detector = d
	return nil
}

// UseMotion replaces the frame source with a motion tracker and closes the
// one it replaces. It fails while the loop runs.
func (a *App) UseMotion(t *capture.MotionTracker) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh != nil {
		return ErrRunning
	}
	a.closeSource()
	a.motion = t
	return nil
}

// MotionTracking reports whether frames go to the motion tracker.
func (a *App) MotionTracking() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.detector == nil && a.motion != nil
}

func (a *App) closeSource() {
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.log.WithError(err).Warn("Error closing detector")
		}
		a.detector = nil
	}
	if a.motion != nil {
		a.motion.Close()
		a.motion = nil
	}
}

// SetCamera replaces the frame source. It fails while the loop runs.
func (a *App) SetCamera(c capture.Camera) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopCh != nil {
		return ErrRunning
	}
	a.camera = c
	return nil
}

// OnFrame registers fn to receive every processed frame. fn runs on the
// pipeline goroutine and must not block.
func (a *App) OnFrame(fn func(control.Frame)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onFrame = fn
}

// Start opens the camera, begins a logged session and starts the pipeline.
func (a *App) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopCh != nil {
		return nil
	}

	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}

	a.beginSession()

	a.stopCh = make(chan struct{})
	a.doneCh = make(chan struct{})
	go a.runPipeline(a.stopCh, a.doneCh)

	a.log.WithField("fps", a.camera.FPS()).Info("Detection pipeline started")
	return nil
}

// Stop halts the pipeline, releases any held button and closes the camera
// and detector.
func (a *App) Stop() {
	a.mu.Lock()
	stopCh, doneCh := a.stopCh, a.doneCh
	a.stopCh, a.doneCh = nil, nil
	a.mu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-doneCh
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	actions, err := a.controller.Close()
	a.record(actions)
	if err != nil {
		a.log.WithError(err).Warn("Failed to release controls")
	}

	a.saveSettings()
	a.endSession()

	if err := a.camera.Close(); err != nil {
		a.log.WithError(err).Warn("Error closing camera")
	}
	if a.detector != nil {
		if err := a.detector.Close(); err != nil {
			a.log.WithError(err).Warn("Error closing detector")
		}
	}
	if a.motion != nil {
		a.motion.Close()
	}

	a.log.Info("Detection pipeline stopped")
}

// Running reports whether the pipeline goroutine is active.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopCh != nil
}

// Session returns the current action-log session ID, or "" without a store.
func (a *App) Session() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.session
}

// Screen returns the display the controller maps onto.
func (a *App) Screen() pointer.Screen {
	return a.screen
}

func (a *App) beginSession() {
	if a.config.Store == nil || a.session != "" {
		return
	}

	sess := &store.Session{
		ScreenWidth:  a.screen.Width,
		ScreenHeight: a.screen.Height,
		Mapping:      string(a.controller.Config().Mapping),
	}
	if err := a.config.Store.Sessions().Start(sess); err != nil {
		a.log.WithError(err).Warn("Failed to start session, actions will not be logged")
		return
	}
	a.session = sess.ID
	a.log.WithField("session", sess.ID).Debug("Session started")
}

func (a *App) endSession() {
	if a.config.Store == nil || a.session == "" {
		return
	}
	if err := a.config.Store.Sessions().End(a.session); err != nil {
		a.log.WithError(err).WithField("session", a.session).Warn("Failed to end session")
	}
	a.session = ""
}
