package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"procmon/internal/config"
	"procmon/internal/snapshot"
)

// samplingFlags are shared by every command that scans processes. Values
// not set on the command line fall back to the loaded config.
type samplingFlags struct {
	name      string
	interval  time.Duration
	minMemory uint64
	sort      string
	tree      bool
}

func (f *samplingFlags) register(fs *pflag.FlagSet, withInterval bool) {
	fs.StringVarP(&f.name, "name", "n", "", "Process name substring to match (case-sensitive)")
	fs.Uint64Var(&f.minMemory, "min-memory", 0, "Only include processes using at least this many MB")
	fs.StringVarP(&f.sort, "sort", "s", "", "Sort key: memory, cpu, pid or name")
	fs.BoolVar(&f.tree, "tree", false, "Show processes as a parent/child tree")
	if withInterval {
		fs.DurationVarP(&f.interval, "interval", "i", 0, "Sampling interval")
	}
}

type resolvedSampling struct {
	Name        string
	Interval    time.Duration
	MinMemoryMB uint64
	Sort        snapshot.SortKey
	Tree        bool
}

func (f *samplingFlags) resolve(cmd *cobra.Command, cfg config.Config) (resolvedSampling, error) {
	out := resolvedSampling{
		Name:        f.name,
		Interval:    cfg.Interval,
		MinMemoryMB: cfg.MinMemoryMB,
		Sort:        cfg.Sort,
		Tree:        f.tree,
	}
	flags := cmd.Flags()
	if flags.Changed("interval") {
		if f.interval <= 0 {
			return out, fmt.Errorf("--interval must be greater than 0")
		}
		out.Interval = f.interval
	}
	if flags.Changed("min-memory") {
		out.MinMemoryMB = f.minMemory
	}
	if flags.Changed("sort") {
		key, err := snapshot.ParseSortKey(f.sort)
		if err != nil {
			return out, err
		}
		out.Sort = key
	}
	return out, nil
}
