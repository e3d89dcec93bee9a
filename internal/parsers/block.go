package parsers

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

// BlockDevice is one row of `lsblk -dno NAME,TYPE`.
type BlockDevice struct {
	Name string
	Type string
}

// ParseLsblk parses `lsblk -dno NAME,TYPE` output. Rows with fewer than two
// fields are skipped.
func ParseLsblk(out string) []BlockDevice {
	var devices []BlockDevice
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		devices = append(devices, BlockDevice{Name: fields[0], Type: fields[1]})
	}
	return devices
}

// IsDiskType reports whether an lsblk TYPE is a physical disk worth probing.
func IsDiskType(t string) bool {
	switch t {
	case "disk", "nvme", "rom":
		return true
	}
	return false
}

// PowerStateFromSysfs maps /sys/block/<dev>/device/state. ok is false when
// the state is missing or not conclusive, meaning hdparm should be asked.
func PowerStateFromSysfs(out string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(out)) {
	case "running", "active":
		return snapshot.PowerActive, true
	case "standby":
		return snapshot.PowerStandby, true
	case "sleep":
		return snapshot.PowerSleep, true
	}
	return "", false
}

// PowerStateFromHdparm maps `hdparm -C` output.
func PowerStateFromHdparm(out string) string {
	lower := strings.ToLower(out)
	switch {
	case strings.Contains(lower, "standby"):
		return snapshot.PowerStandby
	case strings.Contains(lower, "sleeping"):
		return snapshot.PowerSleep
	case strings.Contains(lower, "active/idle"):
		return snapshot.PowerActive
	}
	return snapshot.PowerUnknown
}

// IOStats holds the counters from /sys/block/<dev>/stat used for activity
// detection.
type IOStats struct {
	ReadIOs  int64
	WriteIOs int64
	InFlight int64
	IOTicks  int64
}

// ParseDiskStat parses /sys/block/<dev>/stat. The file must carry at least
// the eleven classic fields.
func ParseDiskStat(out string) (IOStats, bool) {
	fields := strings.Fields(out)
	if len(fields) < 11 {
		return IOStats{}, false
	}

	var vals [4]int64
	for i, idx := range []int{0, 4, 8, 9} {
		v, err := strconv.ParseInt(fields[idx], 10, 64)
		if err != nil {
			return IOStats{}, false
		}
		vals[i] = v
	}
	return IOStats{ReadIOs: vals[0], WriteIOs: vals[1], InFlight: vals[2], IOTicks: vals[3]}, true
}
