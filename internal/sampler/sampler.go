// Package sampler owns the per-session sampling state shared by the live
// dashboard and the recorder daemon.
package sampler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"procmon/internal/inspect"
	"procmon/internal/snapshot"
	"procmon/internal/trend"
)

// Recorder is the write side of the history store.
type Recorder interface {
	Insert(ctx context.Context, snaps []snapshot.Snapshot) error
}

// Filter selects which processes a tick keeps. The name match is a
// case-sensitive substring; zero values disable a criterion.
type Filter struct {
	Name           string
	PID            int32
	MinMemoryBytes uint64
}

// Match reports whether a raw record passes the filter.
func (f Filter) Match(rec inspect.ThreadRecord) bool {
	if f.PID != 0 && rec.TGID != f.PID {
		return false
	}
	if f.Name != "" && !strings.Contains(rec.Name, f.Name) {
		return false
	}
	return rec.MemoryBytes >= f.MinMemoryBytes
}

type Options struct {
	Inspector inspect.Inspector
	Interval  time.Duration
	Filter    Filter
	// Store and Window are optional.
	Store  Recorder
	Window *trend.Window
}

// Sampler is not safe for concurrent use; one loop drives it.
type Sampler struct {
	opts    Options
	last    time.Time
	sampled bool
	latest  []snapshot.Process
	ticks   uint64
	records uint64
	warning string
}

func New(opts Options) *Sampler {
	return &Sampler{opts: opts}
}

// Due reports whether a full interval has passed since the last sample.
// The first call is always due.
func (s *Sampler) Due(now time.Time) bool {
	if !s.sampled {
		return true
	}
	return now.Sub(s.last) >= s.opts.Interval
}

// Tick acquires one sample stamped with now: raw records are filtered,
// grouped per thread group, pushed to the trend window, and appended to
// the store. A failed insert latches a warning and does not fail the tick.
func (s *Sampler) Tick(ctx context.Context, now time.Time) ([]snapshot.Process, error) {
	s.last = now
	s.sampled = true

	records, err := s.opts.Inspector.Threads(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire processes: %w", err)
	}
	kept := records[:0:0]
	for _, rec := range records {
		if s.opts.Filter.Match(rec) {
			kept = append(kept, rec)
		}
	}

	procs := inspect.Group(kept, s.opts.Inspector)
	for i := range procs {
		procs[i].Timestamp = now
	}
	snaps := snapshot.Snapshots(procs)

	if s.opts.Window != nil {
		s.opts.Window.Push(snaps)
	}
	if s.opts.Store != nil && len(snaps) > 0 {
		if err := s.opts.Store.Insert(ctx, snaps); err != nil {
			if s.warning == "" {
				s.warning = fmt.Sprintf("history logging failed: %v", err)
			}
		} else {
			s.records += uint64(len(snaps))
		}
	}

	s.ticks++
	s.latest = procs
	return procs, nil
}

// Latest returns the processes from the most recent successful tick.
func (s *Sampler) Latest() []snapshot.Process { return s.latest }

// LastSample is the zero time until the first tick.
func (s *Sampler) LastSample() time.Time { return s.last }

func (s *Sampler) Ticks() uint64   { return s.ticks }
func (s *Sampler) Records() uint64 { return s.records }

// Warning returns the first storage failure seen, if any.
func (s *Sampler) Warning() string { return s.warning }

// Window returns the trend window, which may be nil.
func (s *Sampler) Window() *trend.Window { return s.opts.Window }

func (s *Sampler) Filter() Filter { return s.opts.Filter }
