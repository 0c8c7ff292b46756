// Package stats reduces a range of stored snapshots to a summary report.
package stats

import (
	"errors"
	"time"

	"procmon/internal/format"
	"procmon/internal/snapshot"
)

// ErrEmptyInput is returned when there is nothing to summarise.
var ErrEmptyInput = errors.New("no snapshots to summarise")

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type MemoryStats struct {
	MinBytes uint64  `json:"min_bytes"`
	AvgBytes float64 `json:"avg_bytes"`
	MaxBytes uint64  `json:"max_bytes"`
}

type CPUStats struct {
	MinPercent float64 `json:"min_percent"`
	AvgPercent float64 `json:"avg_percent"`
	MaxPercent float64 `json:"max_percent"`
}

// ProcessCount describes how many distinct processes each sampling
// instant captured.
type ProcessCount struct {
	Min int     `json:"min"`
	Max int     `json:"max"`
	Avg float64 `json:"avg"`
}

// Peak is the record holding the maximum of one metric.
type Peak struct {
	Metric    string    `json:"metric"`
	Value     float64   `json:"raw_value"`
	Display   string    `json:"value"`
	Timestamp time.Time `json:"timestamp"`
	PID       int32     `json:"pid"`
	Name      string    `json:"process_name"`
}

type Summary struct {
	TimeRange    TimeRange    `json:"time_range"`
	Memory       MemoryStats  `json:"memory_stats"`
	CPU          CPUStats     `json:"cpu_stats"`
	ProcessCount ProcessCount `json:"process_count"`
	TotalRecords int          `json:"total_records"`
	Peaks        []Peak       `json:"peak_details"`
}

// Summarize computes the report for snaps, which must be in timestamp
// order. Ties for a peak go to the earliest record.
func Summarize(snaps []snapshot.Snapshot) (Summary, error) {
	if len(snaps) == 0 {
		return Summary{}, ErrEmptyInput
	}

	first := snaps[0]
	var (
		memSum  float64
		cpuSum  float64
		memPeak = first
		cpuPeak = first
		mem     = MemoryStats{MinBytes: first.MemoryBytes, MaxBytes: first.MemoryBytes}
		cpu     = CPUStats{MinPercent: first.CPUPercent, MaxPercent: first.CPUPercent}
	)

	// Instants are keyed by UTC nanoseconds so zone differences in the
	// same instant collapse to one group.
	perInstant := make(map[int64]map[int32]struct{})
	var instants []int64

	for _, s := range snaps {
		memSum += float64(s.MemoryBytes)
		cpuSum += s.CPUPercent

		if s.MemoryBytes < mem.MinBytes {
			mem.MinBytes = s.MemoryBytes
		}
		if s.MemoryBytes > mem.MaxBytes {
			mem.MaxBytes = s.MemoryBytes
			memPeak = s
		}
		if s.CPUPercent < cpu.MinPercent {
			cpu.MinPercent = s.CPUPercent
		}
		if s.CPUPercent > cpu.MaxPercent {
			cpu.MaxPercent = s.CPUPercent
			cpuPeak = s
		}

		key := s.Timestamp.UnixNano()
		set, ok := perInstant[key]
		if !ok {
			set = make(map[int32]struct{})
			perInstant[key] = set
			instants = append(instants, key)
		}
		set[s.PID] = struct{}{}
	}

	n := float64(len(snaps))
	mem.AvgBytes = memSum / n
	cpu.AvgPercent = cpuSum / n

	counts := ProcessCount{Min: len(perInstant[instants[0]])}
	total := 0
	for _, key := range instants {
		c := len(perInstant[key])
		total += c
		if c < counts.Min {
			counts.Min = c
		}
		if c > counts.Max {
			counts.Max = c
		}
	}
	counts.Avg = float64(total) / float64(len(instants))

	return Summary{
		TimeRange:    TimeRange{From: first.Timestamp, To: snaps[len(snaps)-1].Timestamp},
		Memory:       mem,
		CPU:          cpu,
		ProcessCount: counts,
		TotalRecords: len(snaps),
		Peaks: []Peak{
			peak("Memory", float64(memPeak.MemoryBytes), format.Bytes(memPeak.MemoryBytes), memPeak),
			peak("CPU", cpuPeak.CPUPercent, format.Percent(cpuPeak.CPUPercent), cpuPeak),
		},
	}, nil
}

func peak(metric string, value float64, display string, s snapshot.Snapshot) Peak {
	return Peak{
		Metric:    metric,
		Value:     value,
		Display:   display,
		Timestamp: s.Timestamp,
		PID:       s.PID,
		Name:      s.Name,
	}
}
