package monitor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/ui"
	"github.com/rileyhilliard/nasmon/internal/util"
)

// Card sizing.
const (
	maxCardWidth   = 72
	minCardWidth   = 40
	labelWidth     = 10
	sparkWidth     = 20
	barWidth       = 16
	sideBySideFrom = 2*minCardWidth + 2
)

var cardLabelStyle = LabelStyle.Width(labelWidth)

// cardWidth fits one card into the terminal width.
func cardWidth(width int) int {
	return max(minCardWidth, min(maxCardWidth, width-2))
}

func cardLine(label, value string) string {
	return cardLabelStyle.Render(label) + value
}

// renderOverview shows the system card, volumes and UPS. Wide terminals
// put the UPS next to the system card.
func (m Model) renderOverview(width int) string {
	sys := m.snap.System
	ups := m.snap.PowerBackup

	if width >= sideBySideFrom && ups.Present() {
		half := (width - 2) / 2
		top := lipgloss.JoinHorizontal(lipgloss.Top,
			m.systemCard(min(half, maxCardWidth)), "  ", upsCard(ups, min(half, maxCardWidth)))
		return top + "\n" + volumesCard(sys.Volumes, min(width, 2*maxCardWidth))
	}

	w := cardWidth(width)
	cards := []string{m.systemCard(w)}
	if ups.Present() {
		cards = append(cards, upsCard(ups, w))
	}
	cards = append(cards, volumesCard(sys.Volumes, w))
	return strings.Join(cards, "\n")
}

func (m Model) systemCard(width int) string {
	sys := m.snap.System
	lines := []string{
		cardLine("CPU", m.tempWithTrend(sys.CPUTemperature, SeriesCPUTemp)),
		cardLine("Board", m.tempWithTrend(sys.MotherboardTemperature, SeriesBoardTemp)),
	}

	if sys.MemoryTotal > 0 {
		pct := float64(sys.MemoryUsed) / float64(sys.MemoryTotal) * 100
		mem := ProgressBar(barWidth, pct) + " " +
			lipgloss.NewStyle().Foreground(MetricColor(pct)).Render(fmt.Sprintf("%3.0f%%", pct)) + " " +
			MutedStyle.Render(humanize.IBytes(sys.MemoryUsed)+" / "+humanize.IBytes(sys.MemoryTotal))
		lines = append(lines, cardLine("Memory", mem))
	} else {
		lines = append(lines, cardLine("Memory", MutedStyle.Render(snapshot.Unknown)))
	}

	if sys.MemoryAvailable > 0 {
		lines = append(lines, cardLine("Available", MutedStyle.Render(humanize.IBytes(sys.MemoryAvailable))))
	}

	return Box("System", uptimeValue(sys), lines, width)
}

func uptimeValue(sys snapshot.SystemInfo) string {
	if sys.Uptime == "" || sys.Uptime == snapshot.Unknown {
		return ""
	}
	return "up " + sys.Uptime
}

// tempWithTrend renders a temperature reading followed by its sparkline.
func (m Model) tempWithTrend(reading, series string) string {
	v, ok := util.LeadingNumber(reading)
	if !ok {
		return MutedStyle.Render(reading)
	}
	value := lipgloss.NewStyle().Foreground(TempColor(v)).Render(fmt.Sprintf("%-7s", reading))
	spark := ui.Sparkline(m.history.Last(series, sparkWidth), sparkWidth, TempColor)
	return value + " " + spark
}

func volumesCard(vols map[string]snapshot.VolumeUsage, width int) string {
	if len(vols) == 0 {
		return Box("Volumes", "", []string{MutedStyle.Render("No volumes reported.")}, width)
	}

	mounts := make([]string, 0, len(vols))
	for mnt := range vols {
		mounts = append(mounts, mnt)
	}
	slices.Sort(mounts)

	nameWidth := 0
	for _, mnt := range mounts {
		nameWidth = max(nameWidth, lipgloss.Width(mnt))
	}
	nameStyle := LabelStyle.Width(min(nameWidth, width/3) + 1)

	lines := make([]string, 0, len(mounts))
	for _, mnt := range mounts {
		v := vols[mnt]
		usage := MutedStyle.Render(v.UsePercent)
		if pct, ok := util.LeadingNumber(v.UsePercent); ok {
			usage = ProgressBar(barWidth, pct) + " " +
				lipgloss.NewStyle().Foreground(MetricColor(pct)).Render(fmt.Sprintf("%3.0f%%", pct))
		}
		lines = append(lines, nameStyle.Render(mnt)+usage+" "+MutedStyle.Render(v.Used+" / "+v.Size))
	}
	return Box("Volumes", fmt.Sprintf("%d", len(vols)), lines, width)
}

func upsCard(ups snapshot.PowerBackupInfo, width int) string {
	lines := []string{cardLine("Model", ValueStyle.Render(ups.Model))}
	lines = append(lines, cardLine("Status", upsStatus(ups.Status)))

	if pct, ok := util.LeadingNumber(ups.BatteryLevel); ok {
		// Full is good, so the usage palette runs backwards.
		color := MetricColor(100 - pct)
		lines = append(lines, cardLine("Battery", LevelBar(barWidth, pct, color)+" "+
			lipgloss.NewStyle().Foreground(color).Render(fmt.Sprintf("%3.0f%%", pct))))
	}
	if ups.Runtime != "" {
		lines = append(lines, cardLine("Runtime", ValueStyle.Render(ups.Runtime+" min")))
	}
	if load, ok := util.LeadingNumber(ups.Load); ok {
		lines = append(lines, cardLine("Load", ProgressBar(barWidth, load)+" "+
			lipgloss.NewStyle().Foreground(MetricColor(load)).Render(fmt.Sprintf("%3.0f%%", load))))
	}
	if ups.LastUpdate != "" {
		lines = append(lines, cardLine("Updated", MutedStyle.Render(ups.LastUpdate)))
	}
	return Box("UPS", ups.Name, lines, width)
}

// upsStatus colors NUT status flags: OL online, OB on battery, LB low battery.
func upsStatus(status string) string {
	flags := strings.Fields(status)
	switch {
	case slices.Contains(flags, "LB"):
		return ErrorStyle.Render(status)
	case slices.Contains(flags, "OB"):
		return lipgloss.NewStyle().Foreground(ColorWarning).Render(status)
	case slices.Contains(flags, "OL"):
		return lipgloss.NewStyle().Foreground(ColorHealthy).Render(status)
	default:
		return MutedStyle.Render(status)
	}
}

// diskTrendCard lists each disk with its activity, health and temperature
// history.
func (m Model) diskTrendCard(width int) string {
	lines := make([]string, 0, len(m.snap.Disks))
	for _, d := range m.snap.Disks {
		glyph := activityGlyph(d.Status)
		health := lipgloss.NewStyle().Foreground(HealthColor(d.Health)).Width(6).Render(d.Health)
		lines = append(lines, fmt.Sprintf("%s %s %s %s",
			glyph,
			cardLabelStyle.Render(d.Device),
			health,
			m.tempWithTrend(d.Temperature, DiskTempSeries(d.Device)),
		))
	}
	return Box("Temperatures", fmt.Sprintf("%d disks", len(m.snap.Disks)), lines, width)
}

func activityGlyph(status string) string {
	switch status {
	case snapshot.ActivityActive:
		return lipgloss.NewStyle().Foreground(ColorHealthy).Render(ui.SymbolBusy)
	case snapshot.ActivityIdle:
		return lipgloss.NewStyle().Foreground(ColorTextSecondary).Render(ui.SymbolOnline)
	case snapshot.ActivityDormant:
		return MutedStyle.Render(ui.SymbolDormant)
	default:
		return MutedStyle.Render(ui.SymbolSkipped)
	}
}

// scrubCard shows scrub progress per pool.
func (m Model) scrubCard(width int) string {
	lines := make([]string, 0, len(m.snap.Pools))
	for _, p := range m.snap.Pools {
		st, ok := m.snap.Scrub[p.Name]
		name := cardLabelStyle.Render(p.Name)
		switch {
		case !ok:
			lines = append(lines, name+MutedStyle.Render("no scan data"))
		case st.InProgress:
			line := name + ProgressBar(barWidth, st.Progress) + " " + ValueStyle.Render(fmt.Sprintf("%5.1f%%", st.Progress))
			if st.ETA != "" {
				line += " " + MutedStyle.Render("eta "+st.ETA)
			}
			lines = append(lines, line)
		default:
			lines = append(lines, name+MutedStyle.Render(ui.ScrubSummary(st)))
		}
	}
	return Box("Scrub", "", lines, width)
}
