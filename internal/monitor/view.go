package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/ui"
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n\n")

	if m.ready {
		b.WriteString(m.body.View())
	} else {
		b.WriteString(m.renderSection(m.contentWidth()))
	}

	b.WriteString("\n\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderHeader renders the title line with host status and freshness.
func (m Model) renderHeader() string {
	title := lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("nasmon")
	parts := []string{title, ValueStyle.Render(m.host), ui.StatusBadge(m.snap.System.Status)}

	if m.snap.System.Status == snapshot.StatusOn && m.snap.System.Uptime != snapshot.Unknown {
		parts = append(parts, LabelStyle.Render("up "+m.snap.System.Uptime))
	}
	parts = append(parts, LabelStyle.Render(m.updatedText()))
	if m.refreshing {
		parts = append(parts, m.spinner.View()+LabelStyle.Render(" refreshing"))
	}

	return HeaderStyle.Render(strings.Join(parts, "  "))
}

func (m Model) updatedText() string {
	if !m.received {
		return "waiting for first poll"
	}
	ago := m.now().Sub(m.lastUpdate).Truncate(time.Second)
	if ago < time.Second {
		return "updated just now"
	}
	return fmt.Sprintf("updated %s ago", ago)
}

// renderTabs renders the section selector.
func (m Model) renderTabs() string {
	tabs := make([]string, 0, sectionCount)
	for s := range sectionCount {
		label := fmt.Sprintf("%d %s", s+1, s)
		if s == m.section {
			tabs = append(tabs, ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderFooter renders the short key help.
func (m Model) renderFooter() string {
	return FooterStyle.Render(m.help.View(keys))
}

// renderSection renders the body of the active section.
func (m Model) renderSection(width int) string {
	if m.snap.System.Status == snapshot.StatusOff {
		return m.renderOffline(width)
	}

	switch m.section {
	case SectionDisks:
		return m.renderDisks(width)
	case SectionStorage:
		return m.renderStorage(width)
	case SectionGuests:
		return m.renderGuests(width)
	default:
		return m.renderOverview(width)
	}
}

func (m Model) renderOffline(width int) string {
	lines := []string{
		ErrorStyle.Render(ui.SymbolOffline + " The NAS is not answering."),
		"",
		MutedStyle.Render("nasmon keeps probing in the background and reconnects"),
		MutedStyle.Render("as soon as it is back. Press r to check now."),
	}
	return Box("Offline", m.host, lines, cardWidth(width))
}

func (m Model) renderDisks(width int) string {
	if len(m.snap.Disks) == 0 {
		return MutedStyle.Render("No disks reported.")
	}

	var b strings.Builder
	b.WriteString(ui.RenderTable(ui.DiskColumns, ui.DiskRows(m.snap.Disks)))
	b.WriteString("\n\n")
	b.WriteString(m.diskTrendCard(cardWidth(width)))
	return b.String()
}

func (m Model) renderStorage(width int) string {
	if len(m.snap.Pools) == 0 {
		return MutedStyle.Render("No ZFS pools found.")
	}

	var b strings.Builder
	b.WriteString(ui.RenderTable(ui.PoolColumns, ui.PoolRows(m.snap.Pools, m.snap.Scrub)))
	b.WriteString("\n\n")
	b.WriteString(m.scrubCard(cardWidth(width)))
	return b.String()
}

func (m Model) renderGuests(_ int) string {
	var b strings.Builder

	b.WriteString(lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("Virtual machines"))
	b.WriteString("\n")
	if len(m.snap.VMs) == 0 {
		b.WriteString(MutedStyle.Render("None defined."))
	} else {
		b.WriteString(ui.RenderTable(ui.VMColumns, ui.VMRows(m.snap.VMs)))
	}

	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().Foreground(ColorAccent).Bold(true).Render("Containers"))
	b.WriteString("\n")
	if len(m.snap.Containers) == 0 {
		b.WriteString(MutedStyle.Render("None running, or docker monitoring is off."))
	} else {
		b.WriteString(ui.RenderTable(ui.ContainerColumns, ui.ContainerRows(m.snap.Containers)))
	}
	return b.String()
}
