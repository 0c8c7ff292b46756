package app

import (
	"github.com/shirou/gopsutil/v3/mem"

	"procmon/internal/config"
	"procmon/internal/history"
	"procmon/internal/inspect"
)

// Options configures the top-level controller.
type Options struct {
	// ConfigPath points to the optional JSON/YAML config file.
	ConfigPath string
}

// App exposes high-level operations that the CLI/TUI can reuse.
type App struct {
	cfgPath string
}

// New constructs the shared controller facade.
func New(opts Options) *App {
	return &App{
		cfgPath: opts.ConfigPath,
	}
}

// ConfigPath returns the configured config file path (if any).
func (a *App) ConfigPath() string {
	return a.cfgPath
}

// Config loads the configuration the commands start from.
func (a *App) Config() (config.Config, error) {
	return config.Load(a.cfgPath)
}

// Seams for tests.
var (
	newInspector  = inspect.New
	openHistory   = history.Open
	virtualMemory = mem.VirtualMemoryWithContext
	swapMemory    = mem.SwapMemoryWithContext
)

func resetSamplingDeps() {
	newInspector = inspect.New
	openHistory = history.Open
	virtualMemory = mem.VirtualMemoryWithContext
	swapMemory = mem.SwapMemoryWithContext
}
