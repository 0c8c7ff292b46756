// Package trend keeps the short rolling history behind the live graphs.
package trend

import (
	"time"

	"procmon/internal/snapshot"
)

// Point is the total of one tick's filtered set.
type Point struct {
	Timestamp        time.Time
	TotalMemoryBytes uint64
	TotalCPUPercent  float64
}

// Window is a fixed-capacity FIFO of Points. The zero value is unusable;
// call NewWindow.
type Window struct {
	buf   []Point
	start int
	n     int
}

// NewWindow returns an empty window. Capacities below one are raised to one.
func NewWindow(capacity int) *Window {
	if capacity < 1 {
		capacity = 1
	}
	return &Window{buf: make([]Point, capacity)}
}

// Push appends the totals of snaps, evicting the oldest point when full.
// Empty input is ignored.
func (w *Window) Push(snaps []snapshot.Snapshot) {
	if len(snaps) == 0 {
		return
	}
	p := Point{Timestamp: snaps[0].Timestamp}
	for _, s := range snaps {
		p.TotalMemoryBytes += s.MemoryBytes
		p.TotalCPUPercent += s.CPUPercent
	}

	end := (w.start + w.n) % len(w.buf)
	w.buf[end] = p
	if w.n < len(w.buf) {
		w.n++
	} else {
		w.start = (w.start + 1) % len(w.buf)
	}
}

func (w *Window) Len() int { return w.n }
func (w *Window) Cap() int { return len(w.buf) }

// Points returns the retained points oldest first.
func (w *Window) Points() []Point {
	out := make([]Point, w.n)
	for i := 0; i < w.n; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// MemorySeries returns total memory per point, oldest first.
func (w *Window) MemorySeries() []uint64 {
	out := make([]uint64, w.n)
	for i, p := range w.Points() {
		out[i] = p.TotalMemoryBytes
	}
	return out
}

// CPUSeries returns total CPU per point truncated toward zero.
func (w *Window) CPUSeries() []uint64 {
	out := make([]uint64, w.n)
	for i, p := range w.Points() {
		out[i] = uint64(p.TotalCPUPercent)
	}
	return out
}

// MaxMemory is 0 for an empty window.
func (w *Window) MaxMemory() uint64 {
	var max uint64
	for _, p := range w.Points() {
		if p.TotalMemoryBytes > max {
			max = p.TotalMemoryBytes
		}
	}
	return max
}

// MaxCPU is 0 for an empty window.
func (w *Window) MaxCPU() float64 {
	var max float64
	for _, p := range w.Points() {
		if p.TotalCPUPercent > max {
			max = p.TotalCPUPercent
		}
	}
	return max
}
