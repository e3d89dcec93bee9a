package monitor

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

func sizedModel(t *testing.T, snap snapshot.Snapshot, width int) Model {
	t.Helper()
	m := NewModel("nas.lan", snap, nil, nil)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: width, Height: 60})
	return m
}

func TestView_Overview(t *testing.T) {
	for _, width := range []int{60, 160} {
		m := sizedModel(t, onlineSnapshot(), width)
		out := m.View()

		for _, want := range []string{
			"nasmon", "nas.lan", "online", "up 2天 1小时 0分钟",
			"1 Overview", "2 Disks", "3 Storage", "4 Guests",
			"System", "48 °C", "2.0 GiB / 8.0 GiB",
			"UPS", "SMT1500", "OL CHRG", "35 min",
			"Volumes", "/vol1", "1.8T / 3.6T",
			"quit",
		} {
			assert.Contains(t, out, want, "width %d", width)
		}
	}
}

func TestView_Sections(t *testing.T) {
	tests := []struct {
		key  string
		want []string
	}{
		{"2", []string{"DEVICE", "sda", "sdb", "Temperatures", "2 disks"}},
		{"3", []string{"POOL", "tank", "Scrub", "42.0%", "eta 00:10:00"}},
		{"4", []string{"Virtual machines", "homeassistant", "Containers", "plex"}},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			m := sizedModel(t, onlineSnapshot(), 120)
			m, _ = update(t, m, runes(tt.key))
			out := m.View()
			for _, want := range tt.want {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestView_EmptyGuests(t *testing.T) {
	s := onlineSnapshot()
	s.VMs = []snapshot.VMRecord{}
	s.Containers = []snapshot.ContainerRecord{}

	m := sizedModel(t, s, 120)
	m, _ = update(t, m, runes("4"))
	assert.Contains(t, m.View(), "None defined.")
}

func TestView_Offline(t *testing.T) {
	m := sizedModel(t, snapshot.Default(), 100)
	out := m.View()

	assert.Contains(t, out, "offline")
	assert.Contains(t, out, "not answering")
	assert.Contains(t, out, "waiting for first poll")
	assert.NotContains(t, out, "Volumes")
}

func TestView_UpdatedText(t *testing.T) {
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	m := NewModel("nas", snapshot.Default(), nil, nil)
	m.now = func() time.Time { return at.Add(90 * time.Second) }

	m, _ = update(t, m, snapshotMsg{snap: onlineSnapshot(), at: at})
	assert.Equal(t, "updated 1m30s ago", m.updatedText())

	m.now = func() time.Time { return at }
	assert.Equal(t, "updated just now", m.updatedText())
}

func TestView_WithoutWindowSize(t *testing.T) {
	m := NewModel("nas", onlineSnapshot(), nil, nil)
	assert.Contains(t, m.View(), "System")
}

func TestSection_Cycle(t *testing.T) {
	assert.Equal(t, SectionDisks, SectionOverview.Next())
	assert.Equal(t, SectionOverview, SectionGuests.Next())
	assert.Equal(t, SectionGuests, SectionOverview.Prev())
	assert.Equal(t, "Storage", SectionStorage.String())
}
