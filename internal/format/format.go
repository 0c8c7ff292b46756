package format

import (
	"fmt"
	"strings"
)

const (
	kib = 1024
	mib = kib * 1024
	gib = mib * 1024
)

// Bytes renders a byte count with a binary unit and two decimals.
func Bytes(n uint64) string {
	switch {
	case n >= gib:
		return fmt.Sprintf("%.2f GB", float64(n)/gib)
	case n >= mib:
		return fmt.Sprintf("%.2f MB", float64(n)/mib)
	case n >= kib:
		return fmt.Sprintf("%.2f KB", float64(n)/kib)
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// Percent renders a CPU share with two decimals.
func Percent(v float64) string {
	return fmt.Sprintf("%.2f%%", v)
}

// Truncate shortens s to at most max runes, marking the cut with "...".
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

// MiB converts a megabyte count from the CLI into bytes.
func MiB(mb uint64) uint64 {
	return mb * mib
}

// Rule returns a horizontal rule of width w.
func Rule(ch string, w int) string {
	return strings.Repeat(ch, w)
}
