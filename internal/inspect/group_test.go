package inspect

import (
	"testing"

	"procmon/internal/snapshot"
)

type fixedCounter map[int32]int

func (f fixedCounter) ThreadCount(tgid int32) int {
	return f[tgid]
}

func TestGroupPrefersMainThread(t *testing.T) {
	records := []ThreadRecord{
		// worker thread first, with a misleading parent link
		{TID: 101, TGID: 100, PPID: 100, HasPPID: true, Name: "worker", MemoryBytes: 4096},
		{TID: 100, TGID: 100, PPID: 1, HasPPID: true, Name: "server", MemoryBytes: 4096, Status: snapshot.StatusRunning},
		{TID: 102, TGID: 100, PPID: 100, HasPPID: true, Name: "worker", MemoryBytes: 4096},
	}
	out := Group(records, fixedCounter{100: 12})
	if len(out) != 1 {
		t.Fatalf("expected one process, got %d", len(out))
	}
	p := out[0]
	if p.PID != 100 || p.Name != "server" || p.ParentPID != 1 || !p.HasParent {
		t.Fatalf("main thread was not chosen as representative: %+v", p)
	}
	if p.ThreadCount != 12 {
		t.Fatalf("thread count must come from the counter, got %d", p.ThreadCount)
	}
	if p.Status != snapshot.StatusRunning {
		t.Fatalf("unexpected status %v", p.Status)
	}
}

func TestGroupFallsBackToAnyMember(t *testing.T) {
	records := []ThreadRecord{
		{TID: 201, TGID: 200, Name: "helper", MemoryBytes: 10},
		{TID: 202, TGID: 200, Name: "helper", MemoryBytes: 10},
	}
	out := Group(records, fixedCounter{})
	if len(out) != 1 {
		t.Fatalf("expected one process, got %d", len(out))
	}
	if out[0].PID != 200 || out[0].Name != "helper" {
		t.Fatalf("unexpected fallback representative: %+v", out[0])
	}
	if out[0].ThreadCount != 1 {
		t.Fatalf("missing count should degrade to 1, got %d", out[0].ThreadCount)
	}
}

func TestGroupOneRecordPerGroup(t *testing.T) {
	var records []ThreadRecord
	for g := int32(1); g <= 5; g++ {
		for tid := g * 10; tid < g*10+int32(g); tid++ {
			records = append(records, ThreadRecord{TID: tid, TGID: g})
		}
		records = append(records, ThreadRecord{TID: g, TGID: g})
	}
	out := Group(records, nil)
	if len(out) != 5 {
		t.Fatalf("expected 5 groups, got %d", len(out))
	}
	seen := map[int32]bool{}
	for _, p := range out {
		if seen[p.PID] {
			t.Fatalf("pid %d emitted twice", p.PID)
		}
		seen[p.PID] = true
	}
}

func TestGroupDoesNotSum(t *testing.T) {
	records := []ThreadRecord{
		{TID: 7, TGID: 7, CPUPercent: 12.5, MemoryBytes: 1 << 20},
		{TID: 8, TGID: 7, CPUPercent: 12.5, MemoryBytes: 1 << 20},
	}
	out := Group(records, fixedCounter{7: 2})
	if out[0].CPUPercent != 12.5 || out[0].MemoryBytes != 1<<20 {
		t.Fatalf("group values must be taken from one record: %+v", out[0])
	}
}

func TestGroupEmpty(t *testing.T) {
	if out := Group(nil, nil); len(out) != 0 {
		t.Fatalf("expected no output, got %v", out)
	}
}
