package tui

import "strings"

var sparkLevels = []rune(" ▁▂▃▄▅▆▇█")

// sparkline draws the newest width values scaled against max, one glyph
// per value. Values above max are clipped to a full bar.
func sparkline(values []uint64, max uint64, width int) string {
	if width <= 0 || len(values) == 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}
	if max == 0 {
		max = 1
	}
	top := uint64(len(sparkLevels) - 1)

	var b strings.Builder
	for _, v := range values {
		level := v * top / max
		if v > max {
			level = top
		}
		b.WriteRune(sparkLevels[level])
	}
	return b.String()
}
