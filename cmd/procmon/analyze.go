package main

import (
	"errors"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"procmon/internal/app"
	"procmon/internal/stats"
)

func init() {
	rootCmd.AddCommand(cmdAnalyze)
}

var (
	analyzeDBPath string
	analyzeName   string
	analyzeFrom   string
	analyzeTo     string
	analyzeFormat string
)

func init() {
	cmdAnalyze.Flags().StringVar(&analyzeDBPath, "db", "", "History file to analyze")
	cmdAnalyze.Flags().StringVarP(&analyzeName, "name", "n", "", "Only include records whose process name contains this substring")
	cmdAnalyze.Flags().StringVar(&analyzeFrom, "from", "", "Start of the time range (RFC 3339, e.g. 2026-01-05T14:00:00+09:00)")
	cmdAnalyze.Flags().StringVar(&analyzeTo, "to", "", "End of the time range (RFC 3339)")
	cmdAnalyze.Flags().StringVar(&analyzeFormat, "format", app.FormatTable, "Output format: table or json")
}

var cmdAnalyze = &cobra.Command{
	Use:   "analyze",
	Short: "Summarise recorded history",
	RunE: func(cmd *cobra.Command, args []string) error {
		outFormat, err := app.ParseFormat(analyzeFormat)
		if err != nil {
			return err
		}
		ctrl := controller()
		cfg, err := ctrl.Config()
		if err != nil {
			return err
		}
		dbPath := cfg.DBPath
		if cmd.Flags().Changed("db") {
			dbPath = analyzeDBPath
		}
		if dbPath == "" {
			return errors.New("--db is required")
		}

		out := cmd.OutOrStdout()
		spin := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
		spin.Suffix = " Loading history..."
		spin.Start()
		sum, err := ctrl.Analyze(cmd.Context(), app.AnalyzeParams{
			DBPath: dbPath,
			Name:   analyzeName,
			From:   analyzeFrom,
			To:     analyzeTo,
		})
		spin.Stop()
		if err != nil {
			return err
		}
		return renderSummary(out, outFormat, sum)
	},
}

func renderSummary(w io.Writer, outFormat string, sum stats.Summary) error {
	if outFormat == app.FormatJSON {
		return app.RenderSummaryJSON(w, sum)
	}
	return app.RenderSummary(w, sum, analyzeName)
}
