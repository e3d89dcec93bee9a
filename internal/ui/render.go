package ui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/util"
)

const (
	labelWidth = 12
	barWidth   = 20
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)
	sectionStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	labelStyle   = lipgloss.NewStyle().Foreground(ColorMuted).Width(labelWidth)
	mutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
)

// HostLine renders "nasmon <host> ● online" with the uptime when known.
func HostLine(host string, sys snapshot.SystemInfo) string {
	line := titleStyle.Render("nasmon") + " " + host + " " + StatusBadge(sys.Status)
	if sys.Status == snapshot.StatusOn && sys.Uptime != snapshot.Unknown {
		line += mutedStyle.Render("  up " + sys.Uptime)
	}
	return line
}

// StatusBadge renders the host status with its glyph and color.
func StatusBadge(status string) string {
	switch status {
	case snapshot.StatusOn:
		return lipgloss.NewStyle().Foreground(ColorSuccess).Render(SymbolOnline + " online")
	case snapshot.StatusRebooting:
		return lipgloss.NewStyle().Foreground(ColorWarning).Render(SymbolBusy + " rebooting")
	default:
		return lipgloss.NewStyle().Foreground(ColorError).Render(SymbolOffline + " offline")
	}
}

// RenderSnapshot renders every section of s as plain terminal text.
// Sections with nothing to show are left out.
func RenderSnapshot(host string, s snapshot.Snapshot) string {
	var b strings.Builder
	b.WriteString(HostLine(host, s.System))
	b.WriteString("\n")

	if s.System.Status == snapshot.StatusOff {
		b.WriteString(mutedStyle.Render("No readings while the NAS is unreachable."))
		b.WriteString("\n")
		return b.String()
	}

	writeSection(&b, "System", RenderSystem(s.System))
	writeSection(&b, "Volumes", RenderVolumes(s.System.Volumes))
	writeSection(&b, "Disks", RenderDisks(s.Disks))
	writeSection(&b, "Storage pools", RenderPools(s.Pools, s.Scrub))
	writeSection(&b, "Virtual machines", RenderVMs(s.VMs))
	writeSection(&b, "Containers", RenderContainers(s.Containers))
	writeSection(&b, "UPS", RenderPowerBackup(s.PowerBackup))
	return b.String()
}

func writeSection(b *strings.Builder, title, body string) {
	if body == "" {
		return
	}
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
}

func row(label, value string) string {
	return "  " + labelStyle.Render(label) + value + "\n"
}

// RenderSystem renders temperatures and memory.
func RenderSystem(sys snapshot.SystemInfo) string {
	var b strings.Builder
	b.WriteString(row("CPU", Temperature(sys.CPUTemperature)))
	b.WriteString(row("Board", Temperature(sys.MotherboardTemperature)))
	if sys.MemoryTotal > 0 {
		pct := float64(sys.MemoryUsed) / float64(sys.MemoryTotal) * 100
		b.WriteString(row("Memory", UsageBar(pct, barWidth)+"  "+
			mutedStyle.Render(fmt.Sprintf("%s of %s", humanize.IBytes(sys.MemoryUsed), humanize.IBytes(sys.MemoryTotal)))))
	} else {
		b.WriteString(row("Memory", snapshot.Unknown))
	}
	return b.String()
}

// Temperature colors a "45 °C" style reading. Anything else is returned as is.
func Temperature(reading string) string {
	v, ok := util.LeadingNumber(reading)
	if !ok {
		return mutedStyle.Render(reading)
	}
	return lipgloss.NewStyle().Foreground(TemperatureColor(v)).Render(reading)
}

// RenderVolumes renders one usage bar per mount point, sorted by mount.
func RenderVolumes(vols map[string]snapshot.VolumeUsage) string {
	if len(vols) == 0 {
		return ""
	}
	mounts := make([]string, 0, len(vols))
	for m := range vols {
		mounts = append(mounts, m)
	}
	slices.Sort(mounts)

	var b strings.Builder
	for _, m := range mounts {
		v := vols[m]
		usage := v.UsePercent
		if pct, ok := util.LeadingNumber(v.UsePercent); ok {
			usage = UsageBar(pct, barWidth)
		}
		b.WriteString(row(m, usage+"  "+mutedStyle.Render(fmt.Sprintf("%s of %s", v.Used, v.Size))))
	}
	return b.String()
}

// DiskColumns are shared by the plain table and the dashboard.
var DiskColumns = []TableColumn{
	{Title: "DEVICE", Width: 9},
	{Title: "STATUS", Width: 8},
	{Title: "MODEL", Width: 22},
	{Title: "SIZE", Width: 9},
	{Title: "HEALTH", Width: 8},
	{Title: "TEMP", Width: 7},
	{Title: "HOURS", Width: 12},
}

// DiskRows flattens disks for DiskColumns.
func DiskRows(disks []snapshot.DiskRecord) [][]string {
	rows := make([][]string, 0, len(disks))
	for _, d := range disks {
		rows = append(rows, []string{d.Device, d.Status, d.Model, d.Capacity, d.Health, d.Temperature, d.PowerOnHours})
	}
	return rows
}

// RenderDisks renders the disk table.
func RenderDisks(disks []snapshot.DiskRecord) string {
	return RenderTable(DiskColumns, DiskRows(disks))
}

// PoolColumns are shared by the plain table and the dashboard.
var PoolColumns = []TableColumn{
	{Title: "POOL", Width: 10},
	{Title: "HEALTH", Width: 9},
	{Title: "SIZE", Width: 7},
	{Title: "ALLOC", Width: 7},
	{Title: "FREE", Width: 7},
	{Title: "CAP", Width: 5},
	{Title: "FRAG", Width: 5},
	{Title: "SCRUB", Width: 36},
}

// PoolRows flattens pools and their scrub state for PoolColumns.
func PoolRows(pools []snapshot.StoragePoolRecord, scrub map[string]snapshot.ScrubStatus) [][]string {
	rows := make([][]string, 0, len(pools))
	for _, p := range pools {
		rows = append(rows, []string{p.Name, p.Health, p.Size, p.Alloc, p.Free, p.Capacity, p.Fragmentation, ScrubSummary(scrub[p.Name])})
	}
	return rows
}

// ScrubSummary condenses a scrub status into one cell.
func ScrubSummary(st snapshot.ScrubStatus) string {
	switch {
	case st.InProgress && st.Progress > 0:
		s := fmt.Sprintf("%s %.1f%%", st.State, st.Progress)
		if st.ETA != "" {
			s += " eta " + st.ETA
		}
		return s
	case st.State == "":
		return "-"
	case st.LastRun != "":
		return st.State + " " + st.LastRun
	default:
		return st.State
	}
}

// RenderPools renders the storage pool table.
func RenderPools(pools []snapshot.StoragePoolRecord, scrub map[string]snapshot.ScrubStatus) string {
	return RenderTable(PoolColumns, PoolRows(pools, scrub))
}

// VMColumns are shared by the plain table and the dashboard.
var VMColumns = []TableColumn{
	{Title: "ID", Width: 4},
	{Title: "NAME", Width: 18},
	{Title: "STATE", Width: 12},
	{Title: "TITLE", Width: 30},
}

// VMRows flattens VMs for VMColumns.
func VMRows(vms []snapshot.VMRecord) [][]string {
	rows := make([][]string, 0, len(vms))
	for _, vm := range vms {
		rows = append(rows, []string{vm.ID, vm.Name, vm.State, vm.Title})
	}
	return rows
}

// RenderVMs renders the VM table.
func RenderVMs(vms []snapshot.VMRecord) string {
	return RenderTable(VMColumns, VMRows(vms))
}

// ContainerColumns are shared by the plain table and the dashboard.
var ContainerColumns = []TableColumn{
	{Title: "NAME", Width: 24},
	{Title: "STATUS", Width: 12},
}

// ContainerRows flattens containers for ContainerColumns.
func ContainerRows(cs []snapshot.ContainerRecord) [][]string {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{c.Name, c.Status})
	}
	return rows
}

// RenderContainers renders the container table.
func RenderContainers(cs []snapshot.ContainerRecord) string {
	return RenderTable(ContainerColumns, ContainerRows(cs))
}

// RenderPowerBackup renders the UPS block, or nothing without a UPS.
func RenderPowerBackup(ups snapshot.PowerBackupInfo) string {
	if !ups.Present() {
		return ""
	}
	var b strings.Builder
	b.WriteString(row("Model", orUnknown(ups.Model)))
	b.WriteString(row("Status", orUnknown(ups.Status)))
	if pct, ok := util.LeadingNumber(ups.BatteryLevel); ok {
		// Battery is good when high, so invert for the usage palette.
		bar := lipgloss.NewStyle().Foreground(UsageColor(100 - pct)).Render(fmt.Sprintf("%.0f%%", pct))
		b.WriteString(row("Battery", bar))
	}
	if ups.Runtime != "" {
		b.WriteString(row("Runtime", ups.Runtime+" min"))
	}
	if ups.Load != "" {
		b.WriteString(row("Load", ups.Load+"%"))
	}
	if ups.LastUpdate != "" {
		b.WriteString(row("Updated", mutedStyle.Render(ups.LastUpdate)))
	}
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return snapshot.Unknown
	}
	return s
}
