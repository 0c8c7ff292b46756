package main

import (
	"errors"

	"github.com/spf13/cobra"

	"procmon/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdShow)
}

var (
	showFlags samplingFlags
	showPID   int32
)

func init() {
	showFlags.register(cmdShow.Flags(), false)
	cmdShow.Flags().Int32VarP(&showPID, "pid", "p", 0, "Show a single process by PID (defaults to procmon itself)")
}

var cmdShow = &cobra.Command{
	Use:   "show",
	Short: "Print matching processes once",
	RunE: func(cmd *cobra.Command, args []string) error {
		params, err := showParams(cmd, &showFlags, showPID)
		if err != nil {
			return err
		}
		params.Warmup = app.DefaultWarmup
		res, err := controller().Show(cmd.Context(), params)
		if err != nil {
			return err
		}
		return app.RenderShow(cmd.OutOrStdout(), res)
	},
}

func showParams(cmd *cobra.Command, flags *samplingFlags, pid int32) (app.ShowParams, error) {
	if flags.name != "" && pid != 0 {
		return app.ShowParams{}, errors.New("--name and --pid are mutually exclusive")
	}
	cfg, err := controller().Config()
	if err != nil {
		return app.ShowParams{}, err
	}
	s, err := flags.resolve(cmd, cfg)
	if err != nil {
		return app.ShowParams{}, err
	}
	return app.ShowParams{
		Name:        s.Name,
		PID:         pid,
		Sort:        s.Sort,
		MinMemoryMB: s.MinMemoryMB,
		Tree:        s.Tree,
	}, nil
}
