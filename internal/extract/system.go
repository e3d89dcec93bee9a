package extract

import (
	"context"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/util"
)

// SystemExtractor gathers uptime, temperatures, memory and volume usage.
type SystemExtractor struct {
	run Runner
	log logger.Logger
}

// NewSystemExtractor creates a SystemExtractor.
func NewSystemExtractor(run Runner, log logger.Logger) *SystemExtractor {
	return &SystemExtractor{run: run, log: logger.OrNoop(log)}
}

// Extract returns the system section of a snapshot. Status is always "on":
// the caller only runs extractors once the host answered.
func (s *SystemExtractor) Extract(ctx context.Context) snapshot.SystemInfo {
	info := snapshot.DefaultSystem()
	info.Status = snapshot.StatusOn

	if secs, ok := parsers.ParseUptime(s.run.Run(ctx, "cat /proc/uptime", sysfsTimeout)); ok {
		info.UptimeSeconds = secs
		info.Uptime = parsers.FormatUptime(secs)
	}

	sensors := s.run.Run(ctx, "sensors", toolTimeout)
	if t, ok := parsers.ParseCPUTemperature(sensors); ok {
		info.CPUTemperature = t
	}
	if t, ok := parsers.ParseMotherboardTemperature(sensors); ok {
		info.MotherboardTemperature = t
	}

	if mem, ok := parsers.ParseFree(s.run.Run(ctx, "free -b", sysfsTimeout)); ok {
		info.MemoryTotal = mem.Total
		info.MemoryUsed = mem.Used
		info.MemoryAvailable = mem.Available
	}

	info.Volumes = s.Volumes(ctx)
	return info
}

// Volumes reports usage for root-level volume mounts. It asks only about
// volumes that are already mounted, so an unmounted path never triggers an
// automount or a disk wake. A wildcard df and then the raw mount table are
// tried only when the step before yields nothing.
func (s *SystemExtractor) Volumes(ctx context.Context) map[string]snapshot.VolumeUsage {
	if mounts := parsers.ParseMountVolumes(s.run.Run(ctx, "mount | grep '"+parsers.VolumePrefix+"'", sysfsTimeout)); len(mounts) > 0 {
		args := quoteAll(mounts)
		if vols := parsers.ParseDfBytes(s.run.Run(ctx, "df -B 1 "+args+" 2>/dev/null", toolTimeout)); len(vols) > 0 {
			return vols
		}
		if vols := parsers.ParseDfHuman(s.run.Run(ctx, "df -h "+args+" 2>/dev/null", toolTimeout)); len(vols) > 0 {
			return vols
		}
	}

	s.log.Debug("no mounted volumes enumerated, trying wildcard df")
	if out := s.run.Run(ctx, "df -B 1 "+parsers.VolumePrefix+"* 2>/dev/null || true", toolTimeout); !strings.Contains(out, "No such file") {
		if vols := parsers.ParseDfBytes(out); len(vols) > 0 {
			return vols
		}
	}
	if out := s.run.Run(ctx, "df -h "+parsers.VolumePrefix+"* 2>/dev/null || true", toolTimeout); !strings.Contains(out, "No such file") {
		if vols := parsers.ParseDfHuman(out); len(vols) > 0 {
			return vols
		}
	}

	s.log.Debug("wildcard df found nothing, reading the mount table")
	if mounts := parsers.ParseMountVolumes(s.run.Run(ctx, "cat /proc/mounts", sysfsTimeout)); len(mounts) > 0 {
		if vols := parsers.ParseDfHuman(s.run.Run(ctx, "df -h "+quoteAll(mounts)+" 2>/dev/null", toolTimeout)); len(vols) > 0 {
			return vols
		}
	}

	return map[string]snapshot.VolumeUsage{}
}

func quoteAll(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = util.QuoteIfNeeded(a)
	}
	return strings.Join(quoted, " ")
}
