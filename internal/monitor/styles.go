package monitor

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/ui"
)

// Dashboard color palette.
const (
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#FF2E97")
	ColorGraph  = lipgloss.Color("#00FFFF")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	TabStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true).
			Underline(true).
			Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)
)

// MetricColor returns the color for a 0-100 usage figure.
func MetricColor(percent float64) lipgloss.Color {
	switch {
	case percent >= ui.UsageCritical:
		return ColorCritical
	case percent >= ui.UsageWarning:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// TempColor returns the color for a temperature in °C.
func TempColor(celsius float64) lipgloss.Color {
	switch {
	case celsius >= ui.TempCritical:
		return ColorCritical
	case celsius >= ui.TempWarning:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// HealthColor maps a SMART or pool health string onto the palette.
func HealthColor(health string) lipgloss.Color {
	switch health {
	case parsers.HealthGood, "ONLINE":
		return ColorHealthy
	case parsers.HealthWarning, "DEGRADED":
		return ColorWarning
	case parsers.HealthFailed, parsers.HealthError, parsers.HealthCritical, "FAULTED", "UNAVAIL", "REMOVED":
		return ColorCritical
	default:
		return ColorTextMuted
	}
}

// ProgressBar renders a bracketless bar colored by MetricColor.
func ProgressBar(width int, percent float64) string {
	return LevelBar(width, percent, MetricColor(ui.ClampPercent(percent)))
}

// LevelBar renders a bracketless bar in a fixed color.
func LevelBar(width int, percent float64, color lipgloss.Color) string {
	width = max(1, width)
	percent = ui.ClampPercent(percent)
	filled := min(width, int(percent/100*float64(width)))

	bar := strings.Repeat("▰", filled) + strings.Repeat("▱", width-filled)
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

// SectionHeader renders the top border of a box with the title on the left
// and value on the right.
// Format: ╭─ Title ────────────────────────────────────── Value ╮
func SectionHeader(title, value string, width int) string {
	width = max(10, width)

	leftWidth := 3 + lipgloss.Width(title) + 1
	rightWidth := 1 + lipgloss.Width(value) + 2
	fill := max(1, width-leftWidth-rightWidth)

	borderStyle := lipgloss.NewStyle().Foreground(ColorBorder)
	titleStyle := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	valueStyle := lipgloss.NewStyle().Foreground(ColorGraph).Bold(true)

	return borderStyle.Render("╭─ ") +
		titleStyle.Render(title) +
		borderStyle.Render(" "+strings.Repeat("─", fill)+" ") +
		valueStyle.Render(value) +
		borderStyle.Render(" ╮")
}

// SectionFooter renders the bottom border of a box.
func SectionFooter(width int) string {
	width = max(2, width)
	return lipgloss.NewStyle().Foreground(ColorBorder).Render("╰" + strings.Repeat("─", width-2) + "╯")
}

// SectionContentLine renders one line inside a box, padded to width.
// Content wider than the box is truncated.
func SectionContentLine(content string, width int) string {
	width = max(4, width)
	inner := width - 4

	if lipgloss.Width(content) > inner {
		content = lipgloss.NewStyle().MaxWidth(inner).Render(content)
	}
	padding := max(0, inner-lipgloss.Width(content))

	border := lipgloss.NewStyle().Foreground(ColorBorder).Render("│")
	return border + " " + content + strings.Repeat(" ", padding) + " " + border
}

// Box wraps lines in a titled border.
func Box(title, value string, lines []string, width int) string {
	out := make([]string, 0, len(lines)+2)
	out = append(out, SectionHeader(title, value, width))
	for _, l := range lines {
		out = append(out, SectionContentLine(l, width))
	}
	out = append(out, SectionFooter(width))
	return strings.Join(out, "\n")
}
