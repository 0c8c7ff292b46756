package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"procmon/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdWatch)
}

var (
	watchFlags samplingFlags
	watchPID   int32
)

func init() {
	watchFlags.register(cmdWatch.Flags(), true)
	cmdWatch.Flags().Int32VarP(&watchPID, "pid", "p", 0, "Watch a single process by PID")
}

var cmdWatch = &cobra.Command{
	Use:   "watch",
	Short: "Re-print matching processes every interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		show, err := showParams(cmd, &watchFlags, watchPID)
		if err != nil {
			return err
		}
		cfg, err := controller().Config()
		if err != nil {
			return err
		}
		s, err := watchFlags.resolve(cmd, cfg)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return controller().Watch(ctx, app.WatchParams{ShowParams: show, Interval: s.Interval}, cmd.OutOrStdout())
	},
}
