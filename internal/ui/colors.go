package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Semantic colors. ANSI codes keep them readable on any terminal theme.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Usage thresholds for volumes, pools and memory.
const (
	UsageWarning  = 70.0
	UsageCritical = 90.0
)

// Temperature thresholds in °C. Disks run cooler than CPUs, so both share
// the disk limits and a hot CPU simply reads red sooner.
const (
	TempWarning  = 45.0
	TempCritical = 55.0
)

// DisableColors switches lipgloss to plain output, for --no-color and pipes.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// UsageColor maps a 0-100 usage figure onto green, yellow or red.
func UsageColor(percent float64) lipgloss.Color {
	switch {
	case percent >= UsageCritical:
		return ColorError
	case percent >= UsageWarning:
		return ColorWarning
	default:
		return ColorSuccess
	}
}

// TemperatureColor maps a reading in °C onto green, yellow or red.
func TemperatureColor(celsius float64) lipgloss.Color {
	switch {
	case celsius >= TempCritical:
		return ColorError
	case celsius >= TempWarning:
		return ColorWarning
	default:
		return ColorSuccess
	}
}
