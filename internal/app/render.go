package app

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"procmon/internal/format"
	"procmon/internal/stats"
	"procmon/internal/tree"
)

const (
	nameWidth   = 25
	reportWidth = 70
)

// RenderShow prints a ShowResult as plain text.
func RenderShow(w io.Writer, res ShowResult) error {
	var b strings.Builder

	if res.System != nil {
		b.WriteString("=== System Information ===\n")
		b.WriteString(res.System.MemoryLine() + "\n")
		b.WriteString(res.System.SwapLine() + "\n\n")
	}

	b.WriteString("=== Process Information ===\n")
	p := res.Params
	if p.Name != "" {
		fmt.Fprintf(&b, "Processes matching '%s'", p.Name)
	} else {
		fmt.Fprintf(&b, "Process %d", res.Processes[0].PID)
	}
	if p.MinMemoryMB > 0 {
		fmt.Fprintf(&b, " (>= %d MB)", p.MinMemoryMB)
	}
	fmt.Fprintf(&b, " (sorted by %s", p.Sort)
	if p.Tree {
		b.WriteString(", tree view")
	}
	b.WriteString("):\n")
	if res.Command != "" {
		fmt.Fprintf(&b, "Command: %s\n", res.Command)
	}

	t := res.Totals
	fmt.Fprintf(&b, "Total: %d process(es) (%d threads)\n", t.Count, t.Threads)
	fmt.Fprintf(&b, "Memory: %s (Min: %s, Avg: %s, Max: %s)\n",
		format.Bytes(t.Memory), format.Bytes(t.MinMemory), format.Bytes(t.AvgMemory), format.Bytes(t.MaxMemory))
	fmt.Fprintf(&b, "CPU: %s\n\n", format.Percent(t.CPU))

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}

	var prefixes []string
	if p.Tree {
		prefixes = tree.Prefixes(res.Nodes)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tName\tThreads\tCPU %\tMemory\tStatus")
	fmt.Fprintln(tw, "---\t----\t-------\t-----\t------\t------")
	for i, proc := range res.Processes {
		name := format.Truncate(proc.Name, nameWidth)
		if prefixes != nil {
			name = prefixes[i] + name
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%.2f\t%s\t%s\n",
			proc.PID, name, proc.ThreadCount, proc.CPUPercent, format.Bytes(proc.MemoryBytes), proc.Status)
	}
	return tw.Flush()
}

// RenderSummary prints the analysis report as a table. filter is the name
// filter that produced it, if any.
func RenderSummary(w io.Writer, sum stats.Summary, filter string) error {
	var b strings.Builder
	rule := format.Rule("=", reportWidth)

	b.WriteString(rule + "\nAnalysis Report\n" + rule + "\n")

	b.WriteString("\nTime Range:\n")
	fmt.Fprintf(&b, "  From: %s\n", sum.TimeRange.From.Format(time.RFC3339))
	fmt.Fprintf(&b, "  To:   %s\n", sum.TimeRange.To.Format(time.RFC3339))
	if filter != "" {
		fmt.Fprintf(&b, "  Filter: process name contains '%s'\n", filter)
	}

	b.WriteString("\nMemory Statistics:\n")
	fmt.Fprintf(&b, "  Min:  %s\n", format.Bytes(sum.Memory.MinBytes))
	fmt.Fprintf(&b, "  Avg:  %s\n", format.Bytes(uint64(sum.Memory.AvgBytes)))
	fmt.Fprintf(&b, "  Max:  %s\n", format.Bytes(sum.Memory.MaxBytes))

	b.WriteString("\nCPU Statistics:\n")
	fmt.Fprintf(&b, "  Min:  %s\n", format.Percent(sum.CPU.MinPercent))
	fmt.Fprintf(&b, "  Avg:  %s\n", format.Percent(sum.CPU.AvgPercent))
	fmt.Fprintf(&b, "  Max:  %s\n", format.Percent(sum.CPU.MaxPercent))

	b.WriteString("\nProcess Count:\n")
	fmt.Fprintf(&b, "  Range: %d-%d\n", sum.ProcessCount.Min, sum.ProcessCount.Max)
	fmt.Fprintf(&b, "  Avg:   %.1f\n", sum.ProcessCount.Avg)

	b.WriteString("\nPeak Details:\n")
	for _, pk := range sum.Peaks {
		fmt.Fprintf(&b, "  %s Peak: %s at %s (PID: %d, %s)\n",
			pk.Metric, pk.Display, pk.Timestamp.Format(time.RFC3339), pk.PID, pk.Name)
	}

	fmt.Fprintf(&b, "\nTotal Records: %d\n", sum.TotalRecords)
	b.WriteString(rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummaryJSON prints the analysis report as indented JSON.
func RenderSummaryJSON(w io.Writer, sum stats.Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(sum)
}
