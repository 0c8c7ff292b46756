package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"procmon/internal/history"
	"procmon/internal/snapshot"
)

func seedHistory(t *testing.T, snaps ...snapshot.Snapshot) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	if err := store.Insert(context.Background(), snaps); err != nil {
		t.Fatalf("seed history: %v", err)
	}
	return path
}

var analyzeBase = time.Date(2026, 1, 5, 5, 0, 0, 0, time.UTC)

func analyzeFixture(t *testing.T) string {
	return seedHistory(t,
		snapshot.Snapshot{Timestamp: analyzeBase, PID: 1, Name: "nginx", MemoryBytes: 1 << 20, CPUPercent: 1, ThreadCount: 1},
		snapshot.Snapshot{Timestamp: analyzeBase, PID: 2, Name: "nginx", MemoryBytes: 3 << 20, CPUPercent: 5, ThreadCount: 1},
		snapshot.Snapshot{Timestamp: analyzeBase.Add(time.Minute), PID: 1, Name: "nginx", MemoryBytes: 2 << 20, CPUPercent: 3, ThreadCount: 1},
		snapshot.Snapshot{Timestamp: analyzeBase.Add(time.Minute), PID: 9, Name: "redis", MemoryBytes: 9 << 20, CPUPercent: 9, ThreadCount: 1},
	)
}

func TestAnalyzeMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.db")
	_, err := New(Options{}).Analyze(context.Background(), AnalyzeParams{DBPath: path})
	if err == nil || err.Error() != "database file not found: "+path {
		t.Fatalf("expected missing file error, got %v", err)
	}
}

func TestAnalyzeInvalidTimestamp(t *testing.T) {
	path := analyzeFixture(t)
	_, err := New(Options{}).Analyze(context.Background(), AnalyzeParams{DBPath: path, From: "yesterday"})
	if !errors.Is(err, ErrInvalidTimestamp) {
		t.Fatalf("expected ErrInvalidTimestamp, got %v", err)
	}
	if !strings.Contains(err.Error(), "2026-01-05T14:00:00+09:00") {
		t.Fatalf("error should show an example, got %v", err)
	}
}

func TestAnalyzeNoRecords(t *testing.T) {
	path := analyzeFixture(t)
	_, err := New(Options{}).Analyze(context.Background(), AnalyzeParams{DBPath: path, Name: "postgres"})
	if !errors.Is(err, ErrNoRecords) {
		t.Fatalf("expected ErrNoRecords, got %v", err)
	}
	if !strings.Contains(err.Error(), "widening the time range") {
		t.Fatalf("expected hints in the message, got %v", err)
	}
}

func TestAnalyzeFilteredSummary(t *testing.T) {
	path := analyzeFixture(t)
	sum, err := New(Options{}).Analyze(context.Background(), AnalyzeParams{
		DBPath: path,
		Name:   "nginx",
		From:   "2026-01-05T14:00:00+09:00",
		To:     "2026-01-05T05:01:00Z",
	})
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if sum.TotalRecords != 3 {
		t.Fatalf("expected 3 nginx records, got %d", sum.TotalRecords)
	}
	if sum.Memory.MaxBytes != 3<<20 || sum.ProcessCount.Min != 1 || sum.ProcessCount.Max != 2 {
		t.Fatalf("unexpected summary %+v", sum)
	}

	var table bytes.Buffer
	if err := RenderSummary(&table, sum, "nginx"); err != nil {
		t.Fatalf("render table: %v", err)
	}
	out := table.String()
	for _, want := range []string{
		"Analysis Report",
		"Filter: process name contains 'nginx'",
		"Max:  3.00 MB",
		"Range: 1-2",
		"Memory Peak: 3.00 MB",
		"(PID: 2, nginx)",
		"Total Records: 3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("table output missing %q:\n%s", want, out)
		}
	}

	var js bytes.Buffer
	if err := RenderSummaryJSON(&js, sum); err != nil {
		t.Fatalf("render json: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, key := range []string{"time_range", "memory_stats", "cpu_stats", "process_count", "total_records", "peak_details"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("json missing key %q", key)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat(""); err != nil || f != FormatTable {
		t.Fatalf("empty should default to table, got %q %v", f, err)
	}
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Fatalf("expected json, got %q %v", f, err)
	}
	if _, err := ParseFormat("csv"); err == nil {
		t.Fatalf("expected error for csv")
	}
}
