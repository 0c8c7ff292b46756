package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"procmon/internal/app"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON or YAML config file")
	dbPath := flag.String("db", "", "History file to append samples to")
	name := flag.String("name", "", "Process name substring to record")
	interval := flag.Duration("interval", 0, "Sampling interval (0 uses config)")
	minMemory := flag.Uint64("min-memory", 0, "Only record processes using at least this many MB (0 uses config)")
	force := flag.Bool("force", false, "Stop an existing recorder before starting")
	flag.Parse()

	ctrl := app.New(app.Options{ConfigPath: *configPath})
	cfg, err := ctrl.Config()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	params := app.RecordParams{
		DBPath:      cfg.DBPath,
		Name:        *name,
		Interval:    cfg.Interval,
		MinMemoryMB: cfg.MinMemoryMB,
	}
	if *dbPath != "" {
		params.DBPath = *dbPath
	}
	if *interval > 0 {
		params.Interval = *interval
	}
	if *minMemory > 0 {
		params.MinMemoryMB = *minMemory
	}

	st, err := ctrl.Status(context.Background(), 2*time.Second)
	if st.Running {
		if !*force {
			if err != nil {
				log.Fatalf("recorder appears running but status check failed: %v", err)
			}
			log.Printf("Recorder is already running (pid %d). Use --force to restart.", st.PID)
			return
		}
		log.Printf("Stopping existing recorder...")
		if err := ctrl.StopDaemon(true); err != nil {
			log.Fatalf("failed to stop running recorder: %v", err)
		}
	}

	handle, err := ctrl.StartDaemon(params)
	if err != nil {
		log.Fatalf("failed to start recorder: %v", err)
	}
	log.Printf("Recorder started (pid %d). Press Ctrl+C to stop.", os.Getpid())

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	log.Printf("Stopping recorder...")
	last := handle.Status()
	if err := handle.Close(); err != nil {
		log.Fatalf("error shutting down recorder: %v", err)
	}
	log.Printf("Recorder stopped after %d ticks, %d records.", last.Ticks, last.Records)
}
