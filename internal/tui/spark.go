package tui

import (
	"math"
	"strings"

	"github.com/sleepsense/sleepview/internal/annotation"
)

var levels = []rune("▁▂▃▄▅▆▇█")

// sparkline buckets (times, values) into cols columns over [from, to] and
// draws the bucket means. values are expected in [0, 1]; empty buckets are
// blank.
func sparkline(times, values []float64, from, to float64, cols int) string {
	if cols <= 0 {
		return ""
	}
	sums := make([]float64, cols)
	counts := make([]int, cols)
	span := to - from
	for i, t := range times {
		if i >= len(values) || t < from || t > to || math.IsNaN(values[i]) {
			continue
		}
		c := column(t, from, span, cols)
		sums[c] += values[i]
		counts[c]++
	}

	var b strings.Builder
	b.Grow(cols * 3)
	for c := range cols {
		if counts[c] == 0 {
			b.WriteByte(' ')
			continue
		}
		v := math.Max(0, math.Min(1, sums[c]/float64(counts[c])))
		b.WriteRune(levels[int(math.Round(v*float64(len(levels)-1)))])
	}
	return b.String()
}

// glyphRow places each mark's glyph at its column.
func glyphRow(marks []annotation.Mark, from, to float64, cols int) string {
	if cols <= 0 {
		return ""
	}
	row := []rune(strings.Repeat(" ", cols))
	for _, m := range marks {
		if m.T < from || m.T > to {
			continue
		}
		g := []rune(m.Symbol.Glyph())
		row[column(m.T, from, to-from, cols)] = g[0]
	}
	return string(row)
}

func column(t, from, span float64, cols int) int {
	if span <= 0 {
		return 0
	}
	c := int((t - from) / span * float64(cols-1))
	return max(0, min(c, cols-1))
}
