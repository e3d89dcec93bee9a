package parsers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

// VolumePrefix is the mount-point prefix of NAS storage volumes.
const VolumePrefix = "/vol"

// IsRootVolume reports whether mount is a top-level volume: "/vol" itself,
// "/vol" plus digits, or "/vol" plus a short (≤3) alphanumeric suffix.
// "/vol1" and "/vol2" qualify; "/vol1/docker/overlay2/abc" does not.
func IsRootVolume(mount string) bool {
	if !strings.HasPrefix(mount, VolumePrefix) {
		return false
	}
	rest := strings.TrimPrefix(mount, VolumePrefix)
	if rest == "" {
		return true
	}
	if _, err := strconv.ParseUint(rest, 10, 64); err == nil {
		return true
	}
	return len(rest) <= 3 && isAlphanumeric(rest)
}

func isAlphanumeric(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

// ParseMountVolumes pulls root-level volume mount points from `mount`
// output, sorted and de-duplicated. The mount point is the word after "on";
// lines without one fall back to the first word starting with the prefix.
func ParseMountVolumes(out string) []string {
	seen := map[string]bool{}
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, VolumePrefix) {
			continue
		}
		fields := strings.Fields(line)

		mount := ""
		onIdx := -1
		for i, f := range fields {
			if f == "on" {
				onIdx = i
				break
			}
		}
		if onIdx >= 0 {
			if onIdx+1 < len(fields) && strings.HasPrefix(fields[onIdx+1], VolumePrefix) {
				mount = fields[onIdx+1]
			}
		} else {
			for _, f := range fields {
				if strings.HasPrefix(f, VolumePrefix) {
					mount = f
					break
				}
			}
		}

		if mount != "" && IsRootVolume(mount) {
			seen[mount] = true
		}
	}

	vols := make([]string, 0, len(seen))
	for m := range seen {
		vols = append(vols, m)
	}
	sort.Strings(vols)
	return vols
}

// ParseDfBytes parses `df -B 1` output, keeping root-level volumes only and
// rendering sizes in df -h style ("3.6T").
func ParseDfBytes(out string) map[string]snapshot.VolumeUsage {
	return parseDf(out, func(fields []string) (snapshot.VolumeUsage, bool) {
		var sizes [3]float64
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return snapshot.VolumeUsage{}, false
			}
			sizes[i] = v
		}
		return snapshot.VolumeUsage{
			Filesystem: fields[0],
			Size:       shortBytes(sizes[0]),
			Used:       shortBytes(sizes[1]),
			Available:  shortBytes(sizes[2]),
			UsePercent: fields[4],
		}, true
	})
}

// ParseDfHuman parses `df -h` output, keeping root-level volumes only.
func ParseDfHuman(out string) map[string]snapshot.VolumeUsage {
	return parseDf(out, func(fields []string) (snapshot.VolumeUsage, bool) {
		return snapshot.VolumeUsage{
			Filesystem: fields[0],
			Size:       fields[1],
			Used:       fields[2],
			Available:  fields[3],
			UsePercent: fields[4],
		}, true
	})
}

func parseDf(out string, row func([]string) (snapshot.VolumeUsage, bool)) map[string]snapshot.VolumeUsage {
	vols := map[string]snapshot.VolumeUsage{}
	lines := strings.Split(out, "\n")
	if len(lines) < 2 {
		return vols
	}
	for _, line := range lines[1:] {
		fields := strings.Fields(line)
		if len(fields) < 6 {
			continue
		}
		mount := fields[len(fields)-1]
		if !IsRootVolume(mount) {
			continue
		}
		if v, ok := row(fields); ok {
			vols[mount] = v
		}
	}
	return vols
}

// shortBytes renders b with one decimal and a single-letter binary unit.
func shortBytes(b float64) string {
	for _, unit := range []string{"", "K", "M", "G", "T"} {
		if b < 1024 && b > -1024 {
			return fmt.Sprintf("%.1f%s", b, unit)
		}
		b /= 1024
	}
	return fmt.Sprintf("%.1fP", b)
}
