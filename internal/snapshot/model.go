package snapshot

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Status is the coarse scheduler state of a process.
type Status int

const (
	StatusUnknown Status = iota
	StatusRunning
	StatusSleeping
	StatusIdle
	StatusZombie
)

var statusTags = map[Status]string{
	StatusUnknown:  "Unknown",
	StatusRunning:  "Run",
	StatusSleeping: "Sleep",
	StatusIdle:     "Idle",
	StatusZombie:   "Zombie",
}

// String returns the short tag used both on screen and in storage.
func (s Status) String() string {
	if tag, ok := statusTags[s]; ok {
		return tag
	}
	return statusTags[StatusUnknown]
}

// ParseStatus maps a stored tag back to a Status. Unrecognised tags are Unknown.
func ParseStatus(tag string) Status {
	for s, t := range statusTags {
		if t == tag {
			return s
		}
	}
	return StatusUnknown
}

// MarshalText encodes the status as its tag.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status tag.
func (s *Status) UnmarshalText(b []byte) error {
	*s = ParseStatus(string(b))
	return nil
}

// Snapshot is one logical process observed at one instant. It is a value
// type: it is never mutated after the sampler builds it.
type Snapshot struct {
	Timestamp   time.Time `json:"timestamp"`
	PID         int32     `json:"pid"` // thread-group id, never an LWP id
	Name        string    `json:"process_name"`
	CPUPercent  float64   `json:"cpu_usage"`
	MemoryBytes uint64    `json:"memory_bytes"`
	ThreadCount int       `json:"thread_count"`
	Status      Status    `json:"status"`
}

// Process is a snapshot plus the weak reference to its parent group.
type Process struct {
	Snapshot
	ParentPID int32
	HasParent bool
}

// SortKey is the closed set of orderings the process views support.
type SortKey int

const (
	SortMemory SortKey = iota
	SortCPU
	SortPID
	SortName
)

var sortKeyNames = []string{"memory", "cpu", "pid", "name"}

func (k SortKey) String() string {
	if int(k) >= 0 && int(k) < len(sortKeyNames) {
		return sortKeyNames[k]
	}
	return fmt.Sprintf("sortkey(%d)", int(k))
}

// ParseSortKey accepts memory, cpu, pid or name (case-insensitive).
func ParseSortKey(raw string) (SortKey, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for i, n := range sortKeyNames {
		if n == name {
			return SortKey(i), nil
		}
	}
	return SortMemory, fmt.Errorf("unknown sort key %q (expected one of: %s)", raw, strings.Join(sortKeyNames, ", "))
}

// Less reports whether a orders before b under key. Memory and CPU sort
// descending, PID and name ascending. Equal keys report false so a stable
// sort keeps input order.
func Less(a, b Snapshot, key SortKey) bool {
	switch key {
	case SortCPU:
		return a.CPUPercent > b.CPUPercent
	case SortPID:
		return a.PID < b.PID
	case SortName:
		return a.Name < b.Name
	default:
		return a.MemoryBytes > b.MemoryBytes
	}
}

// SortProcesses orders ps in place by key, keeping input order on ties.
func SortProcesses(ps []Process, key SortKey) {
	sort.SliceStable(ps, func(i, j int) bool {
		return Less(ps[i].Snapshot, ps[j].Snapshot, key)
	})
}

// Snapshots strips parent links, preserving order.
func Snapshots(ps []Process) []Snapshot {
	out := make([]Snapshot, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Snapshot)
	}
	return out
}
