package capture

import (
	"image"
	"image/color"
	"sync"

	"gocv.io/x/gocv"
)

// Motion tracking constants
const (
	// GaussianBlurSize is the kernel size for Gaussian blur (21x21)
	GaussianBlurSize = 21
	// DefaultMotionThreshold is the per-pixel difference from the
	// background that counts as motion.
	DefaultMotionThreshold = 20
	// DefaultMinMotionArea drops regions smaller than this many pixels.
	DefaultMinMotionArea = 500
	// DefaultBackgroundFrames is about one second of video at DefaultFPS.
	DefaultBackgroundFrames = 30

	MinMotionThreshold = 5
	MaxMotionThreshold = 50

	dilateIterations = 2
)

// MotionConfig holds motion tracking settings.
type MotionConfig struct {
	// Threshold is the grayscale difference, 0-255, above which a pixel
	// differs from the background. Lower is more sensitive.
	Threshold float64
	// MinArea is the smallest region, in pixels, that is reported.
	MinArea float64
	// BackgroundFrames are averaged into the background before tracking
	// starts.
	BackgroundFrames int
}

// DefaultMotionConfig returns the default motion tracking settings.
func DefaultMotionConfig() MotionConfig {
	return MotionConfig{
		Threshold:        DefaultMotionThreshold,
		MinArea:          DefaultMinMotionArea,
		BackgroundFrames: DefaultBackgroundFrames,
	}
}

// Motion is the largest moving region of a frame. X and Y are its centroid
// as a fraction of the frame size. Area is in pixels.
type Motion struct {
	Found bool
	X     float64
	Y     float64
	Area  float64
}

// MotionTracker finds the largest region that differs from a learned
// background. It steers the pointer when no hand detector is available.
type MotionTracker struct {
	config     MotionConfig
	background gocv.Mat
	learned    int
	mu         sync.Mutex
}

// NewMotionTracker creates a MotionTracker. Out-of-range settings fall back
// to or are clamped into their defaults.
func NewMotionTracker(config MotionConfig) *MotionTracker {
	def := DefaultMotionConfig()
	if config.Threshold <= 0 {
		config.Threshold = def.Threshold
	}
	config.Threshold = clampThreshold(config.Threshold)
	if config.MinArea < 0 {
		config.MinArea = 0
	}
	if config.BackgroundFrames <= 0 {
		config.BackgroundFrames = 1
	}

	return &MotionTracker{
		config:     config,
		background: gocv.NewMat(),
	}
}

// Track compares frame against the background and returns the largest
// moving region.
//
// Algorithm:
// 1. Convert frame to grayscale
// 2. Apply Gaussian blur (21x21) to reduce noise
// 3. While learning, average the frame into the background and report nothing
// 4. Calculate absolute difference with the background
// 5. Threshold the difference and dilate to close gaps
// 6. Take the largest external contour above MinArea
// 7. Report its centroid from the moments of the filled contour
func (m *MotionTracker) Track(frame *gocv.Mat) Motion {
	m.mu.Lock()
	defer m.mu.Unlock()

	if frame == nil || frame.Empty() {
		return Motion{}
	}

	gray := gocv.NewMat()
	defer gray.Close()

	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: GaussianBlurSize, Y: GaussianBlurSize}, 0, 0, gocv.BorderDefault)

	// A resolution change invalidates the background.
	if m.learned > 0 && (blurred.Rows() != m.background.Rows() || blurred.Cols() != m.background.Cols()) {
		m.reset()
	}
	if m.learned < m.config.BackgroundFrames {
		m.learn(blurred)
		return Motion{}
	}

	diff := gocv.NewMat()
	defer diff.Close()
	gocv.AbsDiff(blurred, m.background, &diff)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(diff, &thresh, float32(m.config.Threshold), 255, gocv.ThresholdBinary)

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()
	for i := 0; i < dilateIterations; i++ {
		gocv.Dilate(thresh, &thresh, kernel)
	}

	contours := gocv.FindContours(thresh, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	best, area := -1, 0.0
	for i := 0; i < contours.Size(); i++ {
		if a := gocv.ContourArea(contours.At(i)); a > area {
			best, area = i, a
		}
	}
	if best < 0 || area <= m.config.MinArea {
		return Motion{}
	}

	mask := gocv.NewMatWithSize(thresh.Rows(), thresh.Cols(), gocv.MatTypeCV8U)
	defer mask.Close()
	gocv.DrawContours(&mask, contours, best, color.RGBA{R: 255, G: 255, B: 255}, -1)

	moments := gocv.Moments(mask, true)
	if moments["m00"] == 0 {
		return Motion{}
	}

	return Motion{
		Found: true,
		X:     moments["m10"] / moments["m00"] / float64(mask.Cols()),
		Y:     moments["m01"] / moments["m00"] / float64(mask.Rows()),
		Area:  area,
	}
}

// learn folds blurred into the running mean of the background frames.
func (m *MotionTracker) learn(blurred gocv.Mat) {
	if m.learned == 0 {
		blurred.CopyTo(&m.background)
	} else {
		w := 1 / float64(m.learned+1)
		gocv.AddWeighted(m.background, 1-w, blurred, w, 0, &m.background)
	}
	m.learned++
}

// Learning reports whether the background is still being built.
func (m *MotionTracker) Learning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.learned < m.config.BackgroundFrames
}

// Reset discards the background so the next frames are learned again.
func (m *MotionTracker) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *MotionTracker) reset() {
	if !m.background.Empty() {
		m.background.Close()
		m.background = gocv.NewMat()
	}
	m.learned = 0
}

// Close releases resources used by the tracker. A closed tracker relearns
// its background if used again.
func (m *MotionTracker) Close() {
	m.Reset()
}

// Threshold returns the current difference threshold.
func (m *MotionTracker) Threshold() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config.Threshold
}

func clampThreshold(t float64) float64 {
	switch {
	case t < MinMotionThreshold:
		return MinMotionThreshold
	case t > MaxMotionThreshold:
		return MaxMotionThreshold
	}
	return t
}
