package daemon

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"procmon/internal/inspect"
	"procmon/internal/sampler"
	"procmon/internal/snapshot"
)

type staticInspector struct{}

func (staticInspector) Threads(context.Context) ([]inspect.ThreadRecord, error) {
	return []inspect.ThreadRecord{
		{TID: 10, TGID: 10, Name: "worker", MemoryBytes: 4 << 20, Status: snapshot.StatusRunning},
		{TID: 11, TGID: 10, Name: "worker", MemoryBytes: 4 << 20, Status: snapshot.StatusRunning},
		{TID: 20, TGID: 20, Name: "other", MemoryBytes: 1 << 20},
	}, nil
}

func (staticInspector) ThreadCount(int32) int { return 2 }

// shortRuntimeDir keeps the socket path under the sun_path limit.
func shortRuntimeDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "pm")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}

func TestStartDaemonRecordsAndServesStatus(t *testing.T) {
	t.Setenv("PROCMON_SOCKET", "")
	t.Setenv("PROCMON_RUNTIME_DIR", shortRuntimeDir(t))
	dbPath := filepath.Join(t.TempDir(), "history.db")

	srv, err := StartDaemon(RecorderOptions{
		DBPath:    dbPath,
		Interval:  50 * time.Millisecond,
		Filter:    sampler.Filter{Name: "worker"},
		Inspector: staticInspector{},
	})
	if err != nil {
		t.Fatalf("start daemon: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	client, conn, err := Dial(ctx)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	msg, err := client.Ping(ctx)
	if err != nil {
		t.Fatalf("ping: %v", err)
	}
	if msg != "pong" {
		t.Fatalf("expected pong, got %q", msg)
	}

	var st Status
	for {
		st, err = client.Status(ctx)
		if err != nil {
			t.Fatalf("status: %v", err)
		}
		if st.Ticks >= 2 {
			break
		}
		select {
		case <-ctx.Done():
			t.Fatalf("recorder did not tick, last status %+v", st)
		case <-time.After(20 * time.Millisecond):
		}
	}
	if st.SessionID == "" || st.PID != os.Getpid() || st.DBPath != dbPath || st.Name != "worker" {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.Records < 2 {
		t.Fatalf("expected one record per tick, got %d", st.Records)
	}
	if st.Warning != "" {
		t.Fatalf("unexpected warning %q", st.Warning)
	}

	if err := srv.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := os.Stat(SocketPath()); !os.IsNotExist(err) {
		t.Fatalf("socket should be removed, stat err=%v", err)
	}
	if _, err := RunningPID(); !os.IsNotExist(err) {
		t.Fatalf("pid file should be removed, err=%v", err)
	}
}

func TestStartDaemonStoreFailureIsFatal(t *testing.T) {
	t.Setenv("PROCMON_SOCKET", "")
	t.Setenv("PROCMON_RUNTIME_DIR", shortRuntimeDir(t))

	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o600); err != nil {
		t.Fatalf("write blocker: %v", err)
	}
	_, err := StartDaemon(RecorderOptions{
		DBPath:    filepath.Join(blocker, "history.db"),
		Interval:  time.Second,
		Inspector: staticInspector{},
	})
	if err == nil {
		t.Fatalf("expected store failure to abort startup")
	}
	if _, statErr := os.Stat(SocketPath()); !os.IsNotExist(statErr) {
		t.Fatalf("no socket should be bound after a failed start")
	}
}

func TestStartDaemonValidatesOptions(t *testing.T) {
	if _, err := StartDaemon(RecorderOptions{Interval: time.Second}); err == nil {
		t.Fatalf("expected missing db path error")
	}
	if _, err := StartDaemon(RecorderOptions{DBPath: "x.db"}); err == nil {
		t.Fatalf("expected interval error")
	}
}
