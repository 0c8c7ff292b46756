package app

import "procmon/internal/snapshot"

// Totals aggregates one filtered set for the summary lines.
type Totals struct {
	Count     int
	Threads   int
	Memory    uint64
	MinMemory uint64
	AvgMemory uint64
	MaxMemory uint64
	CPU       float64
}

// Summarize totals procs. An empty set yields zero values.
func Summarize(procs []snapshot.Process) Totals {
	var t Totals
	for i, p := range procs {
		t.Count++
		t.Threads += p.ThreadCount
		t.Memory += p.MemoryBytes
		t.CPU += p.CPUPercent
		if i == 0 || p.MemoryBytes < t.MinMemory {
			t.MinMemory = p.MemoryBytes
		}
		if p.MemoryBytes > t.MaxMemory {
			t.MaxMemory = p.MemoryBytes
		}
	}
	if t.Count > 0 {
		t.AvgMemory = t.Memory / uint64(t.Count)
	}
	return t
}
