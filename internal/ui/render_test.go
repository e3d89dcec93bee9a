package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

func sampleSnapshot() snapshot.Snapshot {
	s := snapshot.Default()
	s.System.Status = snapshot.StatusOn
	s.System.Uptime = "3天 4小时 5分钟"
	s.System.CPUTemperature = "52 °C"
	s.System.MemoryTotal = 16 << 30
	s.System.MemoryUsed = 4 << 30
	s.System.Volumes["/vol1"] = snapshot.VolumeUsage{Size: "3.6T", Used: "1.3T", UsePercent: "37%"}
	s.Disks = []snapshot.DiskRecord{
		{Device: "sda", Status: snapshot.ActivityActive, Model: "WDC WD40EFRX", Capacity: "4.00 TB", Health: "良好", Temperature: "34 °C", PowerOnHours: "12345 小时"},
	}
	s.Pools = []snapshot.StoragePoolRecord{{Name: "tank", Health: "ONLINE", Size: "7.25T", Capacity: "41%"}}
	s.Scrub["tank"] = snapshot.ScrubStatus{State: "scrubbing", InProgress: true, Progress: 25.5, ETA: "01:02:03"}
	s.VMs = []snapshot.VMRecord{{ID: "1", Name: "win11", State: snapshot.VMRunning}}
	s.Containers = []snapshot.ContainerRecord{{Name: "jellyfin", Status: "running"}}
	s.PowerBackup = snapshot.PowerBackupInfo{Name: "ups", Model: "Back-UPS", Status: "OL", BatteryLevel: "100", Runtime: "42", Load: "17"}
	return s
}

func TestRenderSnapshot_Online(t *testing.T) {
	out := RenderSnapshot("nas.lan", sampleSnapshot())

	for _, want := range []string{
		"nasmon nas.lan " + SymbolOnline + " online",
		"up 3天 4小时 5分钟",
		"System", "52 °C", "4.0 GiB of 16 GiB",
		"Volumes", "/vol1", "1.3T of 3.6T",
		"Disks", "DEVICE", "sda", "12345 小时",
		"Storage pools", "tank", "scrubbing 25.5% eta 01:02:03",
		"Virtual machines", "win11",
		"Containers", "jellyfin",
		"UPS", "Back-UPS", "42 min", "17%",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderSnapshot_SkipsEmptySections(t *testing.T) {
	s := sampleSnapshot()
	s.VMs = []snapshot.VMRecord{}
	s.Containers = []snapshot.ContainerRecord{}
	s.PowerBackup = snapshot.PowerBackupInfo{}

	out := RenderSnapshot("nas.lan", s)
	assert.NotContains(t, out, "Virtual machines")
	assert.NotContains(t, out, "Containers")
	assert.NotContains(t, out, "UPS")
}

func TestRenderSnapshot_Offline(t *testing.T) {
	out := RenderSnapshot("nas.lan", snapshot.Default())

	assert.Contains(t, out, SymbolOffline+" offline")
	assert.Contains(t, out, "unreachable")
	assert.NotContains(t, out, "System")
	assert.NotContains(t, out, "up ")
}

func TestRenderSystem_UnknownMemory(t *testing.T) {
	out := RenderSystem(snapshot.DefaultSystem())
	assert.Contains(t, out, "Memory")
	assert.Contains(t, out, snapshot.Unknown)
}

func TestStatusBadge(t *testing.T) {
	assert.Contains(t, StatusBadge(snapshot.StatusOn), "online")
	assert.Contains(t, StatusBadge(snapshot.StatusRebooting), "rebooting")
	assert.Contains(t, StatusBadge(snapshot.StatusOff), "offline")
	assert.Contains(t, StatusBadge(""), "offline")
}

func TestScrubSummary(t *testing.T) {
	tests := []struct {
		name string
		in   snapshot.ScrubStatus
		want string
	}{
		{"never scanned", snapshot.ScrubStatus{}, "-"},
		{"running", snapshot.ScrubStatus{State: "scrubbing", InProgress: true, Progress: 10}, "scrubbing 10.0%"},
		{"running without progress", snapshot.ScrubStatus{State: "scrubbing", InProgress: true}, "scrubbing"},
		{"finished", snapshot.ScrubStatus{State: "finished", LastRun: "Sun Oct 11 00:24:01 2026"}, "finished Sun Oct 11 00:24:01 2026"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScrubSummary(tt.in))
		})
	}
}

func TestRenderTable_Empty(t *testing.T) {
	assert.Empty(t, RenderTable(DiskColumns, nil))
}
