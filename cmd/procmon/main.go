package main

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/spf13/cobra"

	"procmon/internal/app"
	"procmon/internal/config"
	"procmon/internal/stats"
)

var rootCmd = &cobra.Command{
	Use:   "procmon [command]",
	Short: "procmon: process sampler, dashboard and history analyzer",
	Long: `procmon samples process state, groups threads into processes, shows
them live or as a tree, and records samples to a history file that can be
analyzed later.`,
	SilenceUsage: true,
}

var configPath string

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to JSON or YAML config file")
}

// controllerAPI is the slice of app.App the commands use.
type controllerAPI interface {
	Config() (config.Config, error)
	Ping(ctx context.Context, timeout time.Duration) (string, error)
	Status(ctx context.Context, timeout time.Duration) (app.DaemonStatus, error)
	StopDaemon(force bool) error
	StartDaemon(params app.RecordParams) (*app.DaemonHandle, error)
	Show(ctx context.Context, params app.ShowParams) (app.ShowResult, error)
	Watch(ctx context.Context, params app.WatchParams, w io.Writer) error
	Analyze(ctx context.Context, params app.AnalyzeParams) (stats.Summary, error)
	StartSession(ctx context.Context, params app.TopParams) (*app.Session, error)
	SystemMemory(ctx context.Context) (app.SystemMemory, error)
}

var controllerFactory = func() controllerAPI {
	return app.New(app.Options{ConfigPath: configPath})
}

func controller() controllerAPI {
	return controllerFactory()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
