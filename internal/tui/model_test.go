package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"procmon/internal/app"
	"procmon/internal/inspect"
	"procmon/internal/sampler"
	"procmon/internal/snapshot"
	"procmon/internal/trend"
)

type fakeInspector struct {
	records []inspect.ThreadRecord
	err     error
	calls   int
}

func (f *fakeInspector) Threads(context.Context) ([]inspect.ThreadRecord, error) {
	f.calls++
	return f.records, f.err
}

func (f *fakeInspector) ThreadCount(int32) int { return 1 }

type stubController struct{}

func (stubController) StartSession(context.Context, app.TopParams) (*app.Session, error) {
	panic("StartSession not used by the model")
}

func (stubController) SystemMemory(context.Context) (app.SystemMemory, error) {
	return app.SystemMemory{Total: 4 << 30, Used: 1 << 30, Available: 3 << 30, UsedPercent: 25}, nil
}

func newTestModel(t *testing.T, graph int) (*Model, *fakeInspector) {
	t.Helper()
	insp := &fakeInspector{records: []inspect.ThreadRecord{
		{TID: 1, TGID: 1, Name: "nginx", MemoryBytes: 2 << 20, CPUPercent: 10},
		{TID: 2, TGID: 2, Name: "nginx", MemoryBytes: 6 << 20, CPUPercent: 5, PPID: 1, HasPPID: true},
	}}
	params := app.TopParams{Name: "nginx", Interval: 2 * time.Second, Sort: snapshot.SortMemory, GraphPoints: graph}
	opts := sampler.Options{Inspector: insp, Interval: params.Interval, Filter: sampler.Filter{Name: "nginx"}}
	if graph > 0 {
		opts.Window = trend.NewWindow(graph)
	}
	session := &app.Session{Params: params, Sampler: sampler.New(opts)}
	return New(stubController{}, session), insp
}

func TestTickSamplesOncePerInterval(t *testing.T) {
	m, insp := newTestModel(t, 0)
	start := time.Now()

	m.Update(tickMsg(start))
	m.Update(tickMsg(start.Add(100 * time.Millisecond)))
	m.Update(tickMsg(start.Add(200 * time.Millisecond)))
	if insp.calls != 1 {
		t.Fatalf("render ticks should not resample, got %d scans", insp.calls)
	}
	m.Update(tickMsg(start.Add(2 * time.Second)))
	if insp.calls != 2 {
		t.Fatalf("expected a second scan after the interval, got %d", insp.calls)
	}
}

func TestTickReschedules(t *testing.T) {
	m, _ := newTestModel(t, 0)
	if _, cmd := m.Update(tickMsg(time.Now())); cmd == nil {
		t.Fatalf("tick should schedule the next tick")
	}
}

func TestRowsFollowSortKey(t *testing.T) {
	m, _ := newTestModel(t, 0)
	m.Update(tickMsg(time.Now()))

	rows := m.table.Rows()
	if len(rows) != 2 || rows[0][0] != "2" {
		t.Fatalf("memory sort should put pid 2 first, got %v", rows)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	if m.sort != snapshot.SortCPU {
		t.Fatalf("expected cpu sort, got %s", m.sort)
	}
	if rows := m.table.Rows(); rows[0][0] != "1" {
		t.Fatalf("cpu sort should put pid 1 first, got %v", rows)
	}
}

func TestTreeToggleIndentsChildren(t *testing.T) {
	m, _ := newTestModel(t, 0)
	m.Update(tickMsg(time.Now()))
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("t")})

	rows := m.table.Rows()
	if rows[0][0] != "1" || !strings.HasPrefix(rows[1][1], "└─ ") {
		t.Fatalf("expected pid 2 nested under pid 1, got %v", rows)
	}
}

func TestQuitKeys(t *testing.T) {
	m, _ := newTestModel(t, 0)
	for _, msg := range []tea.KeyMsg{
		{Type: tea.KeyRunes, Runes: []rune("q")},
		{Type: tea.KeyEsc},
		{Type: tea.KeyCtrlC},
	} {
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s: expected quit command", msg)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Fatalf("%s: expected tea.QuitMsg", msg)
		}
	}
}

func TestViewShowsTrendPlaceholderThenGraphs(t *testing.T) {
	m, _ := newTestModel(t, 10)
	start := time.Now()

	m.Update(tickMsg(start))
	if !strings.Contains(m.View(), "Collecting data for graphs...") {
		t.Fatalf("expected placeholder with a single point")
	}
	m.Update(tickMsg(start.Add(2 * time.Second)))
	view := m.View()
	for _, want := range []string{"Memory Trend (2 points", "CPU Trend (2 points", "Process Monitor: 'nginx'", "System Memory:"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := sparkline([]uint64{0, 50, 100, 200}, 100, 10); got != " ▄██" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := sparkline([]uint64{1, 2, 3}, 3, 2); len([]rune(got)) != 2 {
		t.Fatalf("expected the newest two values, got %q", got)
	}
	if got := sparkline(nil, 10, 10); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
}

func TestAcquisitionFailureQuits(t *testing.T) {
	m, insp := newTestModel(t, 0)
	insp.err = errors.New("/proc unreadable")

	_, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Fatalf("expected quit command after a failed scan")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg after a failed scan")
	}
	if err := m.Err(); err == nil || !strings.Contains(err.Error(), "/proc unreadable") {
		t.Fatalf("expected the scan error to be kept, got %v", err)
	}
	if insp.calls != 1 {
		t.Fatalf("expected one scan, got %d", insp.calls)
	}
}
