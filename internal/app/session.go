package app

import (
	"context"
	"fmt"
	"time"

	"procmon/internal/format"
	"procmon/internal/history"
	"procmon/internal/sampler"
	"procmon/internal/snapshot"
	"procmon/internal/trend"
)

// TopParams configures the live dashboard.
type TopParams struct {
	Name        string
	Interval    time.Duration
	MinMemoryMB uint64
	LogPath     string
	GraphPoints int
	Tree        bool
	Sort        snapshot.SortKey
}

// Session is the sampling state behind one dashboard run.
type Session struct {
	Params  TopParams
	Sampler *sampler.Sampler
	// OpenWarning is set when --log was given but the store could not be
	// opened; the session then runs without logging.
	OpenWarning string

	store *history.Store
}

// StartSession prepares sampling for the dashboard. Failing to open the
// log store is not fatal.
func (a *App) StartSession(ctx context.Context, params TopParams) (*Session, error) {
	if params.Interval <= 0 {
		return nil, fmt.Errorf("interval must be greater than 0")
	}
	s := &Session{Params: params}
	opts := sampler.Options{
		Inspector: newInspector(),
		Interval:  params.Interval,
		Filter: sampler.Filter{
			Name:           params.Name,
			MinMemoryBytes: format.MiB(params.MinMemoryMB),
		},
	}
	if params.GraphPoints > 0 {
		opts.Window = trend.NewWindow(params.GraphPoints)
	}
	if params.LogPath != "" {
		store, err := openHistory(ctx, params.LogPath)
		if err != nil {
			s.OpenWarning = fmt.Sprintf("history logging disabled: %v", err)
		} else {
			s.store = store
			opts.Store = store
		}
	}
	s.Sampler = sampler.New(opts)
	return s, nil
}

// Logging reports whether samples are being written to the store.
func (s *Session) Logging() bool { return s.store != nil }

// Warning returns the first problem worth surfacing to the user.
func (s *Session) Warning() string {
	if s.OpenWarning != "" {
		return s.OpenWarning
	}
	return s.Sampler.Warning()
}

// Close releases the store, if any.
func (s *Session) Close() error {
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}
