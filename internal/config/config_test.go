package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"procmon/internal/snapshot"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(envInterval, "")
	t.Setenv(envDBPath, "")
	t.Setenv(envGraphPoints, "")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg != Default() {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadJSON(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "procmon.json", `{"interval":"5s","db_path":"/tmp/h.db","graph_points":30,"sort":"cpu","min_memory_mb":50}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Config{Interval: 5 * time.Second, DBPath: "/tmp/h.db", GraphPoints: 30, Sort: snapshot.SortCPU, MinMemoryMB: 50}
	if cfg != want {
		t.Fatalf("got %+v want %+v", cfg, want)
	}
}

func TestLoadYAML(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, "procmon.yaml", "interval: 500ms\nsort: name\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interval != 500*time.Millisecond || cfg.Sort != snapshot.SortName {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.GraphPoints != defaultGraphPoints {
		t.Fatalf("unset fields should keep defaults, got %d", cfg.GraphPoints)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"bad interval": `{"interval":"soon"}`,
		"zero interval": `{"interval":"0s"}`,
		"bad sort":      `{"sort":"size"}`,
		"bad points":    `{"graph_points":-1}`,
	}
	for name, body := range cases {
		path := writeFile(t, "c.json", body)
		if _, err := Load(path); err == nil {
			t.Fatalf("%s: expected an error", name)
		} else if !strings.Contains(err.Error(), "load config") {
			t.Fatalf("%s: error should name the file: %v", name, err)
		}
	}
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeFile(t, "procmon.json", `{"interval":"5s","db_path":"/tmp/file.db"}`)
	t.Setenv(envInterval, "1s")
	t.Setenv(envDBPath, "/tmp/env.db")
	t.Setenv(envGraphPoints, "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Interval != time.Second || cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("env should win, got %+v", cfg)
	}
	if cfg.GraphPoints != defaultGraphPoints {
		t.Fatalf("invalid env value should be ignored, got %d", cfg.GraphPoints)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
