package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"procmon/internal/app"
	"procmon/internal/format"
)

func init() {
	rootCmd.AddCommand(cmdStatus)
}

var statusTimeoutSeconds int

func init() {
	cmdStatus.Flags().IntVarP(&statusTimeoutSeconds, "timeout", "t", 2, "Timeout in seconds for the status call")
}

var cmdStatus = &cobra.Command{
	Use:   "status",
	Short: "Show whether the recorder is running and what it has recorded",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := controller().Status(cmd.Context(), time.Duration(statusTimeoutSeconds)*time.Second)
		if err != nil {
			return err
		}
		printStatus(cmd.OutOrStdout(), st)
		return nil
	},
}

func printStatus(w io.Writer, st app.DaemonStatus) {
	if !st.Running {
		fmt.Fprintln(w, "Recorder is not running")
		return
	}
	if st.PID != 0 {
		fmt.Fprintf(w, "Recorder is running (pid %d)\n", st.PID)
	} else {
		fmt.Fprintln(w, "Recorder is running")
	}
	r := st.Recorder
	if r == nil {
		return
	}
	fmt.Fprintf(w, "  Session:    %s\n", r.SessionID)
	fmt.Fprintf(w, "  History:    %s\n", r.DBPath)
	fmt.Fprintf(w, "  Filter:     '%s' (>= %s)\n", r.Name, format.Bytes(r.MinMemoryBytes))
	fmt.Fprintf(w, "  Interval:   %s\n", r.Interval)
	fmt.Fprintf(w, "  Started:    %s\n", r.StartedAt.Format(time.DateTime))
	if !r.LastTick.IsZero() {
		fmt.Fprintf(w, "  Last tick:  %s\n", r.LastTick.Format(time.DateTime))
	}
	fmt.Fprintf(w, "  Ticks:      %d\n", r.Ticks)
	fmt.Fprintf(w, "  Records:    %d\n", r.Records)
	if r.Warning != "" {
		fmt.Fprintf(w, "  Warning:    %s\n", r.Warning)
	}
}
