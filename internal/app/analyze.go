package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"procmon/internal/history"
	"procmon/internal/stats"
)

// ErrInvalidTimestamp reports a --from/--to value that is not RFC 3339.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// ErrNoRecords is returned when the filters match nothing.
var ErrNoRecords = errors.New("no records found matching the criteria. Try:\n" +
	"  - widening the time range\n" +
	"  - checking the process name filter\n" +
	"  - verifying data exists in the database")

// Report output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
)

// AnalyzeParams selects a slice of the history store. From and To are
// RFC 3339 strings; empty means unbounded.
type AnalyzeParams struct {
	DBPath string
	Name   string
	From   string
	To     string
}

// ParseFormat validates a --format value.
func ParseFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown format %q (expected table or json)", raw)
	}
}

// Analyze loads the matching history and summarises it.
func (a *App) Analyze(ctx context.Context, params AnalyzeParams) (stats.Summary, error) {
	if params.DBPath == "" {
		return stats.Summary{}, errors.New("--db is required")
	}
	if _, err := os.Stat(params.DBPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stats.Summary{}, fmt.Errorf("database file not found: %s", params.DBPath)
		}
		return stats.Summary{}, fmt.Errorf("stat database: %w", err)
	}

	filter := history.Filter{Name: params.Name}
	var err error
	if filter.From, err = parseBound(params.From); err != nil {
		return stats.Summary{}, err
	}
	if filter.To, err = parseBound(params.To); err != nil {
		return stats.Summary{}, err
	}

	store, err := openHistory(ctx, params.DBPath)
	if err != nil {
		return stats.Summary{}, fmt.Errorf("open database: %w", err)
	}
	defer store.Close()

	snaps, err := store.Query(ctx, filter)
	if err != nil {
		return stats.Summary{}, fmt.Errorf("database query failed: %w", err)
	}

	sum, err := stats.Summarize(snaps)
	if errors.Is(err, stats.ErrEmptyInput) {
		return stats.Summary{}, ErrNoRecords
	}
	return sum, err
}

func parseBound(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'. Expected ISO 8601 (e.g., 2026-01-05T14:00:00+09:00)", ErrInvalidTimestamp, raw)
	}
	return &ts, nil
}
