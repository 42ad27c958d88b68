package gesture

import (
	"math"
	"time"
)

// Buffer sizes for the frame histories.
const (
	PositionHistorySize = 20
	ScrollHistorySize   = 5
)

// Sample is one frame's key points and when they were observed.
type Sample struct {
	Points KeyPoints
	At     time.Time
}

// History is a fixed-capacity FIFO of samples. Pushing onto a full history
// evicts the oldest sample.
type History struct {
	buf   []Sample
	start int
	n     int
}

// NewHistory creates an empty History holding at most capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{buf: make([]Sample, capacity)}
}

// Push appends s, evicting the oldest sample when full.
func (h *History) Push(s Sample) {
	if h.n < len(h.buf) {
		h.buf[(h.start+h.n)%len(h.buf)] = s
		h.n++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

// Len returns the number of samples held.
func (h *History) Len() int {
	return h.n
}

// Cap returns the maximum number of samples held.
func (h *History) Cap() int {
	return len(h.buf)
}

// At returns the i-th sample, oldest first.
func (h *History) At(i int) Sample {
	if i < 0 || i >= h.n {
		panic("gesture: history index out of range")
	}
	return h.buf[(h.start+i)%len(h.buf)]
}

// Last returns the most recent sample, if any.
func (h *History) Last() (Sample, bool) {
	if h.n == 0 {
		return Sample{}, false
	}
	return h.At(h.n - 1), true
}

// Tail returns up to n of the most recent samples, oldest first.
func (h *History) Tail(n int) []Sample {
	if n > h.n {
		n = h.n
	}
	out := make([]Sample, n)
	for i := 0; i < n; i++ {
		out[i] = h.At(h.n - n + i)
	}
	return out
}

// Reset drops every sample.
func (h *History) Reset() {
	h.start = 0
	h.n = 0
}

// Velocity is the index fingertip motion between the two latest samples.
type Velocity struct {
	// Speed is in normalized frame units per second.
	Speed float64
	// DX and DY are the raw displacement between the two samples.
	DX, DY float64
}

// Velocity estimates index tip velocity from the two most recent samples.
// It is zero until two samples with increasing timestamps are present.
func (h *History) Velocity() Velocity {
	if h.n < 2 {
		return Velocity{}
	}

	prev := h.At(h.n - 2)
	cur := h.At(h.n - 1)
	dt := cur.At.Sub(prev.At).Seconds()
	if dt <= 0 {
		return Velocity{}
	}

	dx := cur.Points.IndexTip.X - prev.Points.IndexTip.X
	dy := cur.Points.IndexTip.Y - prev.Points.IndexTip.Y
	return Velocity{
		Speed: math.Hypot(dx, dy) / dt,
		DX:    dx,
		DY:    dy,
	}
}
