package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/term"

	"procmon/internal/sampler"
)

const clearScreen = "\x1b[2J\x1b[1;1H"

var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// WatchParams re-prints a ShowParams selection every Interval.
type WatchParams struct {
	ShowParams
	Interval time.Duration
}

// Watch prints a fresh table every interval until ctx is cancelled. The
// screen is cleared between frames only when w is a terminal. A frame with
// no matching process prints the reason and keeps watching.
func (a *App) Watch(ctx context.Context, params WatchParams, w io.Writer) error {
	if params.Interval <= 0 {
		return errors.New("interval must be greater than 0")
	}
	redraw := isTerminal(w)
	smp := sampler.New(sampler.Options{
		Inspector: newInspector(),
		Interval:  params.Interval,
		Filter:    params.filter(),
	})

	ticker := time.NewTicker(params.Interval)
	defer ticker.Stop()
	for {
		if redraw {
			io.WriteString(w, clearScreen)
		}
		fmt.Fprintf(w, "Last updated: %s\n", time.Now().Format("2006-01-02 15:04:05"))
		fmt.Fprint(w, "Press Ctrl+C to exit\n\n")

		res, err := a.collect(ctx, smp, params.ShowParams)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil:
			fmt.Fprintf(w, "Error: %v\n", err)
		default:
			if err := RenderShow(w, res); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
