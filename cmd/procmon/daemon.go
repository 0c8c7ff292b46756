package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"procmon/internal/app"
)

func init() {
	rootCmd.AddCommand(cmdDaemon)
}

var (
	daemonForceRestart bool
	daemonFlags        samplingFlags
	daemonDBPath       string
)

func init() {
	daemonFlags.register(cmdDaemon.Flags(), true)
	cmdDaemon.Flags().BoolVarP(&daemonForceRestart, "force", "f", false, "Restart the recorder if it is already running")
	cmdDaemon.Flags().StringVar(&daemonDBPath, "db", "", "History file to append samples to")
}

// waitForSignal blocks until the recorder should shut down.
var waitForSignal = func() {
	sigc := make(chan os.Signal, 2)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc
	signal.Stop(sigc)
}

var cmdDaemon = &cobra.Command{
	Use:   "daemon",
	Short: "Run the headless recorder",
	Long: `The recorder samples matching processes every --interval and appends
them to the --db history file. It serves a health and status endpoint on a
unix socket so 'procmon ping' and 'procmon status' can reach it. If a
recorder is already running nothing happens unless --force is given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		params, err := recordParams(cmd)
		if err != nil {
			return err
		}
		ctrl := controller()

		st, err := ctrl.Status(cmd.Context(), 2*time.Second)
		if st.Running {
			if !daemonForceRestart {
				var message string
				if st.PID != 0 {
					message = fmt.Sprintf("Recorder is already running (pid %d). Stop it manually or re-run with --force.", st.PID)
				} else {
					message = "Recorder is already running. Stop it manually or re-run with --force."
				}
				if err != nil {
					message = fmt.Sprintf("Error checking if recorder is running: %v", err)
				}
				fmt.Fprintln(out, message)
				return nil
			}
			fmt.Fprintln(out, "Stopping existing recorder process...")
			if err := ctrl.StopDaemon(true); err != nil {
				return err
			}
		}

		handle, err := ctrl.StartDaemon(params)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Recording '%s' to %s every %s\n", params.Name, params.DBPath, params.Interval)
		runSpin := spinner.New(spinner.CharSets[21], 120*time.Millisecond, spinner.WithWriter(out))
		runSpin.Suffix = " Recording..."
		runSpin.Start()

		waitForSignal()
		runSpin.Stop()

		last := handle.Status()
		if err := handle.Close(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Recorded %d samples over %d ticks\n", last.Records, last.Ticks)
		return nil
	},
}

func recordParams(cmd *cobra.Command) (app.RecordParams, error) {
	cfg, err := controller().Config()
	if err != nil {
		return app.RecordParams{}, err
	}
	s, err := daemonFlags.resolve(cmd, cfg)
	if err != nil {
		return app.RecordParams{}, err
	}
	params := app.RecordParams{
		DBPath:      cfg.DBPath,
		Name:        s.Name,
		Interval:    s.Interval,
		MinMemoryMB: s.MinMemoryMB,
	}
	if cmd.Flags().Changed("db") {
		params.DBPath = daemonDBPath
	}
	return params, nil
}
