package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Bar block characters.
const (
	BarFilled = '█'
	BarEmpty  = '░'
)

// sparkRunes are the eight sparkline levels, lowest first.
var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// ClampPercent clamps a percentage to the 0-100 range.
func ClampPercent(percent float64) float64 {
	return max(0, min(100, percent))
}

// UsageBar renders "[█████░░░░░]  52%" colored by UsageColor.
func UsageBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	percent = ClampPercent(percent)
	filled := int(percent / 100 * float64(width))

	bar := "[" + strings.Repeat(string(BarFilled), filled) + strings.Repeat(string(BarEmpty), width-filled) + "]"
	return lipgloss.NewStyle().Foreground(UsageColor(percent)).Render(bar) + fmt.Sprintf(" %3.0f%%", percent)
}

// Sparkline draws the last width values scaled between their own min and
// max. The color follows the newest value through colorFor.
func Sparkline(values []float64, width int, colorFor func(float64) lipgloss.Color) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}

	var sb strings.Builder
	top := len(sparkRunes) - 1
	for _, v := range values {
		level := top / 2
		if hi > lo {
			level = int((v - lo) / (hi - lo) * float64(top))
		}
		sb.WriteRune(sparkRunes[max(0, min(top, level))])
	}

	if colorFor == nil {
		return sb.String()
	}
	return lipgloss.NewStyle().Foreground(colorFor(values[len(values)-1])).Render(sb.String())
}
