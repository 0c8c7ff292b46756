package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"procmon/internal/app"
	"procmon/internal/tui"
)

func init() {
	rootCmd.AddCommand(cmdTop)
}

var (
	topFlags   samplingFlags
	topLogPath string
	topGraph   int
)

func init() {
	topFlags.register(cmdTop.Flags(), true)
	cmdTop.Flags().StringVar(&topLogPath, "log", "", "Append every sample to this history file")
	cmdTop.Flags().IntVar(&topGraph, "graph", 0, "Number of points kept for the trend graphs (0 uses config)")
}

var runTUI = func(ctrl tui.Controller, params app.TopParams) error {
	return tui.Run(ctrl, params)
}

var cmdTop = &cobra.Command{
	Use:   "top",
	Short: "Launch the live process dashboard",
	Long: `Samples processes whose name contains --name every --interval and shows
them in a terminal dashboard with memory and CPU trend graphs. With --log,
every sample is also appended to a history file for 'procmon analyze'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := topParams(cmd)
		if err != nil {
			return err
		}
		if err := runTUI(controller(), params); err != nil {
			return fmt.Errorf("tui exited with error: %w", err)
		}
		return nil
	},
}

func topParams(cmd *cobra.Command) (app.TopParams, error) {
	if topFlags.name == "" {
		return app.TopParams{}, errors.New("--name is required")
	}
	cfg, err := controller().Config()
	if err != nil {
		return app.TopParams{}, err
	}
	s, err := topFlags.resolve(cmd, cfg)
	if err != nil {
		return app.TopParams{}, err
	}
	params := app.TopParams{
		Name:        s.Name,
		Interval:    s.Interval,
		MinMemoryMB: s.MinMemoryMB,
		Sort:        s.Sort,
		Tree:        s.Tree,
		LogPath:     topLogPath,
		GraphPoints: cfg.GraphPoints,
	}
	if cmd.Flags().Changed("graph") {
		if topGraph <= 0 {
			return app.TopParams{}, errors.New("--graph must be greater than 0")
		}
		params.GraphPoints = topGraph
	}
	return params, nil
}
