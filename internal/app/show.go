package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"procmon/internal/format"
	"procmon/internal/inspect"
	"procmon/internal/sampler"
	"procmon/internal/snapshot"
	"procmon/internal/tree"
)

// DefaultWarmup is how long Show waits between its two scans so CPU
// figures reflect real usage instead of the first-sample zero.
const DefaultWarmup = 500 * time.Millisecond

// ShowParams selects and orders the processes to print. With neither Name
// nor PID set, the current process is shown.
type ShowParams struct {
	Name        string
	PID         int32
	Sort        snapshot.SortKey
	MinMemoryMB uint64
	Tree        bool
	Warmup      time.Duration
}

func (p ShowParams) filter() sampler.Filter {
	f := sampler.Filter{Name: p.Name, MinMemoryBytes: format.MiB(p.MinMemoryMB)}
	if p.Name == "" {
		f.PID = p.PID
		if f.PID == 0 {
			f.PID = int32(os.Getpid())
		}
	}
	return f
}

// ShowResult is one rendered-ready sample.
type ShowResult struct {
	Params    ShowParams
	At        time.Time
	Processes []snapshot.Process
	Nodes     []tree.Node
	Totals    Totals
	System    *SystemMemory
	// Command is set when a single PID was requested.
	Command string
}

// Show takes one sample and returns it sorted (or as a tree).
func (a *App) Show(ctx context.Context, params ShowParams) (ShowResult, error) {
	insp := newInspector()
	if params.Warmup > 0 {
		if _, err := insp.Threads(ctx); err != nil {
			return ShowResult{}, fmt.Errorf("acquire processes: %w", err)
		}
		select {
		case <-ctx.Done():
			return ShowResult{}, ctx.Err()
		case <-time.After(params.Warmup):
		}
	}
	smp := sampler.New(sampler.Options{Inspector: insp, Filter: params.filter()})
	return a.collect(ctx, smp, params)
}

func (a *App) collect(ctx context.Context, smp *sampler.Sampler, params ShowParams) (ShowResult, error) {
	now := time.Now()
	procs, err := smp.Tick(ctx, now)
	if err != nil {
		return ShowResult{}, err
	}
	if len(procs) == 0 {
		return ShowResult{}, noMatchError(smp.Filter(), params.MinMemoryMB)
	}

	res := ShowResult{Params: params, At: now, Totals: Summarize(procs)}
	if params.Tree {
		res.Nodes = tree.Build(procs, params.Sort)
		res.Processes = make([]snapshot.Process, len(res.Nodes))
		for i, n := range res.Nodes {
			res.Processes[i] = n.Process
		}
	} else {
		snapshot.SortProcesses(procs, params.Sort)
		res.Processes = procs
	}
	if f := smp.Filter(); f.PID != 0 {
		res.Command = inspect.CommandLine(ctx, f.PID)
	}
	if sys, err := a.SystemMemory(ctx); err == nil {
		res.System = &sys
	}
	return res, nil
}

func noMatchError(f sampler.Filter, minMB uint64) error {
	if f.Name == "" {
		return fmt.Errorf("process not found (PID: %d)", f.PID)
	}
	if minMB > 0 {
		return fmt.Errorf("no processes found matching '%s' (with minimum memory filter: %d MB)", f.Name, minMB)
	}
	return fmt.Errorf("no processes found matching '%s'", f.Name)
}
