//go:build !linux

package inspect

import (
	"context"
	"fmt"
)

// New returns the reduced-fidelity inspector: every process is its own
// thread group and thread counts are reported as 1.
func New() Inspector {
	return &flatInspector{cache: processCache{}}
}

type flatInspector struct {
	cache processCache
}

func (i *flatInspector) Threads(ctx context.Context) ([]ThreadRecord, error) {
	procs, err := listProcesses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}
	next := make(processCache, len(procs))
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
		next[p.Pid] = p
		out = append(out, rec)
	}
	i.cache = next
	return out, nil
}

func (i *flatInspector) ThreadCount(int32) int {
	return 1
}
