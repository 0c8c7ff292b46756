//go:build linux

package inspect

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// procReadDir allows tests to stub /proc/<pid>/task listings.
var procReadDir = os.ReadDir

// New returns the full-fidelity inspector backed by /proc.
func New() Inspector {
	return &procInspector{
		cache:   processCache{},
		threads: map[int32]int{},
	}
}

// procInspector reports one record per task so the grouper sees the same
// thread-level view the kernel exposes, and remembers each group's
// accurate thread count from /proc/<pid>/status.
type procInspector struct {
	cache   processCache
	threads map[int32]int
}

func (i *procInspector) Threads(ctx context.Context) ([]ThreadRecord, error) {
	procs, err := listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	next := make(processCache, len(procs))
	threads := make(map[int32]int, len(procs))
	out := make([]ThreadRecord, 0, len(procs))
	for _, p := range procs {
		if p == nil || p.Pid <= 0 {
			continue
		}
		p = i.cache.reuse(ctx, p)
		rec, err := describe(ctx, p)
		if err != nil {
			continue
		}
		if tgid, err := p.TgidWithContext(ctx); err == nil && tgid > 0 {
			rec.TGID = tgid
		}
		next[p.Pid] = p
		if n, err := p.NumThreadsWithContext(ctx); err == nil && n > 0 {
			threads[rec.TGID] = int(n)
		}

		out = append(out, rec)
		for _, tid := range taskIDs(p.Pid) {
			if tid == rec.TID {
				continue
			}
			thread := rec
			thread.TID = tid
			out = append(out, thread)
		}
	}
	i.cache = next
	i.threads = threads
	return out, nil
}

func (i *procInspector) ThreadCount(tgid int32) int {
	if n, ok := i.threads[tgid]; ok && n > 0 {
		return n
	}
	return 1
}

// taskIDs lists the LWP ids under /proc/<pid>/task. A process that exits
// mid-scan simply yields no extra threads.
func taskIDs(pid int32) []int32 {
	entries, err := procReadDir(filepath.Join("/proc", strconv.Itoa(int(pid)), "task"))
	if err != nil {
		return nil
	}
	out := make([]int32, 0, len(entries))
	for _, e := range entries {
		tid, err := strconv.ParseInt(e.Name(), 10, 32)
		if err != nil || tid <= 0 {
			continue
		}
		out = append(out, int32(tid))
	}
	return out
}
