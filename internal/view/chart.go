package view

import "strings"

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values in at most width columns. When squeezed, each
// column shows the max of its bucket.
func Sparkline(values []int64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	cols := values
	if width < len(values) {
		cols = make([]int64, width)
		for i := 0; i < width; i++ {
			from := i * len(values) / width
			to := (i + 1) * len(values) / width
			m := values[from]
			for _, x := range values[from:to] {
				if x > m {
					m = x
				}
			}
			cols[i] = m
		}
	}

	var lo, hi int64 = cols[0], cols[0]
	for _, x := range cols {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}

	var b strings.Builder
	for _, x := range cols {
		idx := 0
		if hi > lo {
			idx = int((x - lo) * int64(len(sparkRunes)-1) / (hi - lo))
		}
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}

// Bar draws value as a filled share of width relative to max.
func Bar(value, max int64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if max > 0 && value > 0 {
		filled = int(value * int64(width) / max)
		if filled > width {
			filled = width
		}
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
