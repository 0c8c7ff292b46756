package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procmon/internal/daemon"
	"procmon/internal/format"
	"procmon/internal/sampler"
)

var (
	daemonPID   = daemon.RunningPID
	startDaemon = daemon.StartDaemon
	stopDaemon  = daemon.StopRunningDaemon
)

// DaemonStatus represents current information about the recorder process.
type DaemonStatus struct {
	Running  bool
	PID      int
	Recorder *daemon.Status
}

// Status returns whether the recorder is running, its PID if known and,
// when it answers, its live counters.
func (a *App) Status(ctx context.Context, timeout time.Duration) (DaemonStatus, error) {
	if !daemonIsRunning() {
		return DaemonStatus{Running: false}, nil
	}
	out := DaemonStatus{Running: true}
	if pid, err := daemonPID(); err == nil {
		out.PID = pid
	}
	err := a.withClient(ctx, timeout, func(ctx context.Context, client recorderClient) error {
		st, err := client.Status(ctx)
		if err != nil {
			return fmt.Errorf("daemon status RPC failed: %w", err)
		}
		out.Recorder = &st
		if out.PID == 0 {
			out.PID = st.PID
		}
		return nil
	})
	return out, err
}

// StopDaemon attempts to stop the running recorder.
func (a *App) StopDaemon(force bool) error {
	return stopDaemon(force)
}

// RecordParams configures a headless recording session.
type RecordParams struct {
	DBPath      string
	Name        string
	Interval    time.Duration
	MinMemoryMB uint64
}

// DaemonHandle holds a running recorder instance.
type DaemonHandle struct {
	srv *daemon.Server
}

// Close stops the running recorder instance.
func (h *DaemonHandle) Close() error {
	if h == nil || h.srv == nil {
		return nil
	}
	return h.srv.Close()
}

// Status returns the in-process recorder's latest status.
func (h *DaemonHandle) Status() daemon.Status {
	return h.srv.Status()
}

// StartDaemon starts recording and returns a handle for closing it.
func (a *App) StartDaemon(params RecordParams) (*DaemonHandle, error) {
	if params.DBPath == "" {
		return nil, errors.New("--db is required for the recorder")
	}
	srv, err := startDaemon(daemon.RecorderOptions{
		DBPath:   params.DBPath,
		Interval: params.Interval,
		Filter: sampler.Filter{
			Name:           params.Name,
			MinMemoryBytes: format.MiB(params.MinMemoryMB),
		},
		Inspector: newInspector(),
	})
	if err != nil {
		return nil, err
	}
	return &DaemonHandle{srv: srv}, nil
}
