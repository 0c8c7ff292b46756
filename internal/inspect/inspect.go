package inspect

import (
	"context"

	"github.com/shirou/gopsutil/v3/process"

	"procmon/internal/snapshot"
)

// ThreadRecord is one raw scheduler entity as reported by the OS. CPU and
// memory figures are whole-process values repeated on every thread of the
// group, so records are deduplicated, never summed.
type ThreadRecord struct {
	TID         int32
	TGID        int32
	PPID        int32
	HasPPID     bool
	Name        string
	CPUPercent  float64
	MemoryBytes uint64
	Status      snapshot.Status
}

// ThreadCounter answers the accurate thread count of a thread group.
type ThreadCounter interface {
	ThreadCount(tgid int32) int
}

// Inspector is the platform capability that lists raw thread records.
// Processes that vanish or cannot be read mid-scan are omitted.
type Inspector interface {
	ThreadCounter
	Threads(ctx context.Context) ([]ThreadRecord, error)
}

// listProcesses allows tests to stub the process table.
var listProcesses = process.ProcessesWithContext

// describe reads the whole-process fields shared by every thread of p.
// CPU is measured against the previous call on the same *process.Process,
// so the first observation of a process reports 0.
func describe(ctx context.Context, p *process.Process) (ThreadRecord, error) {
	name, err := p.NameWithContext(ctx)
	if err != nil {
		return ThreadRecord{}, err
	}
	mem, err := p.MemoryInfoWithContext(ctx)
	if err != nil {
		return ThreadRecord{}, err
	}
	rec := ThreadRecord{
		TID:         p.Pid,
		TGID:        p.Pid,
		Name:        name,
		MemoryBytes: mem.RSS,
	}
	if ppid, err := p.PpidWithContext(ctx); err == nil && ppid > 0 {
		rec.PPID = ppid
		rec.HasPPID = true
	}
	if cpu, err := p.PercentWithContext(ctx, 0); err == nil && cpu > 0 {
		rec.CPUPercent = cpu
	}
	if st, err := p.StatusWithContext(ctx); err == nil {
		rec.Status = statusFrom(st)
	}
	return rec, nil
}

func statusFrom(states []string) snapshot.Status {
	if len(states) == 0 {
		return snapshot.StatusUnknown
	}
	switch states[0] {
	case process.Running:
		return snapshot.StatusRunning
	case process.Sleep:
		return snapshot.StatusSleeping
	case process.Idle:
		return snapshot.StatusIdle
	case process.Zombie:
		return snapshot.StatusZombie
	default:
		return snapshot.StatusUnknown
	}
}

// processCache keeps *process.Process values between scans so CPU
// percentages are deltas since the previous tick.
type processCache map[int32]*process.Process

// createTime allows tests to stub process start times.
var createTime = func(ctx context.Context, p *process.Process) (int64, error) {
	return p.CreateTimeWithContext(ctx)
}

// reuse returns the cached entry for p's PID when it is still the same
// process. A recycled PID has a different start time and gets the fresh
// entry, so it does not inherit the old name or CPU baseline.
func (c processCache) reuse(ctx context.Context, p *process.Process) *process.Process {
	cached, ok := c[p.Pid]
	if !ok {
		return p
	}
	was, err := createTime(ctx, cached)
	if err != nil {
		return p
	}
	now, err := createTime(ctx, p)
	if err != nil || now != was {
		return p
	}
	return cached
}

// CommandLine returns the full command line of pid, or its name when the
// command line is empty (kernel threads) or unreadable.
func CommandLine(ctx context.Context, pid int32) string {
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return ""
	}
	if cmd, err := p.CmdlineWithContext(ctx); err == nil && cmd != "" {
		return cmd
	}
	if name, err := p.NameWithContext(ctx); err == nil {
		return "[" + name + "]"
	}
	return ""
}
