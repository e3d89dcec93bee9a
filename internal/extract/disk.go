package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/logger"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
)

// busyTickThreshold is the io_ticks growth in milliseconds that counts as
// activity on its own.
const busyTickThreshold = 100

// DiskExtractor reports every physical disk while avoiding waking idle or
// sleeping drives. It owns the per-device info cache, the I/O counter cache
// and the first-run flag; Extract must not be called concurrently.
type DiskExtractor struct {
	run    Runner
	ignore map[string]bool
	log    logger.Logger

	info     map[string]snapshot.DiskRecord
	counters map[string]parsers.IOStats
	firstRun bool
}

// NewDiskExtractor creates an extractor that skips the named devices.
func NewDiskExtractor(run Runner, ignore []string, log logger.Logger) *DiskExtractor {
	skip := make(map[string]bool, len(ignore))
	for _, d := range ignore {
		if d = strings.TrimSpace(d); d != "" {
			skip[d] = true
		}
	}
	return &DiskExtractor{
		run:      run,
		ignore:   skip,
		log:      logger.OrNoop(log),
		info:     map[string]snapshot.DiskRecord{},
		counters: map[string]parsers.IOStats{},
		firstRun: true,
	}
}

// Extract lists block devices and builds a record for each disk. Activity is
// always refreshed; the smartctl probe runs on the first poll for every disk
// and afterwards only for disks judged active.
func (d *DiskExtractor) Extract(ctx context.Context) []snapshot.DiskRecord {
	disks := []snapshot.DiskRecord{}

	devices := parsers.ParseLsblk(d.run.Run(ctx, "lsblk -dno NAME,TYPE", toolTimeout))
	if len(devices) == 0 {
		d.log.Debug("lsblk returned no devices")
		return disks
	}

	for _, dev := range devices {
		if d.ignore[dev.Name] {
			d.log.Debug("skipping ignored disk %s", dev.Name)
			continue
		}
		if !parsers.IsDiskType(dev.Type) {
			continue
		}
		disks = append(disks, d.extractOne(ctx, dev.Name))
	}

	if d.firstRun {
		d.firstRun = false
		d.log.Info("initial disk detection finished for %d disks", len(disks))
	}
	return disks
}

func (d *DiskExtractor) extractOne(ctx context.Context, dev string) snapshot.DiskRecord {
	power := d.PowerState(ctx, dev)
	activity := d.Activity(ctx, dev, power)

	cached, hasCache := d.info[dev]

	if !d.firstRun && activity != snapshot.ActivityActive {
		if !hasCache {
			return snapshot.UndetectedDisk(dev, activity, power)
		}
		rec := cached.Clone()
		rec.Status = activity
		rec.PowerState = power
		return rec
	}

	rec := d.probe(ctx, dev, cached, hasCache)
	rec.Status = activity
	rec.PowerState = power
	d.info[dev] = rec.Clone()
	return rec
}

// PowerState reads the sysfs device state and falls back to hdparm -C,
// which queries the drive without spinning it up.
func (d *DiskExtractor) PowerState(ctx context.Context, dev string) string {
	out := d.run.Run(ctx, fmt.Sprintf("cat /sys/block/%s/device/state 2>/dev/null || echo unknown", dev), sysfsTimeout)
	if state, ok := parsers.PowerStateFromSysfs(out); ok {
		return state
	}
	out = d.run.Run(ctx, fmt.Sprintf("hdparm -C /dev/%s 2>/dev/null || echo unknown", dev), sysfsTimeout)
	return parsers.PowerStateFromHdparm(out)
}

// Activity classifies a disk from its power state and I/O counters.
// Standby and sleep are dormant without touching the counters. Otherwise
// in-flight I/O, a first observation, new read/write ops or busy-time
// growth past busyTickThreshold all mean active. Unreadable counters are
// treated as active so a detail probe is never skipped by mistake.
func (d *DiskExtractor) Activity(ctx context.Context, dev, power string) string {
	if power == snapshot.PowerStandby || power == snapshot.PowerSleep {
		return snapshot.ActivityDormant
	}

	cur, ok := parsers.ParseDiskStat(d.run.Run(ctx, fmt.Sprintf("cat /sys/block/%s/stat 2>/dev/null", dev), sysfsTimeout))
	if !ok {
		d.log.Debug("no I/O counters for %s, assuming active", dev)
		return snapshot.ActivityActive
	}

	prev, seen := d.counters[dev]
	d.counters[dev] = cur
	return classifyActivity(prev, seen, cur)
}

func classifyActivity(prev parsers.IOStats, seen bool, cur parsers.IOStats) string {
	switch {
	case cur.InFlight > 0:
		return snapshot.ActivityActive
	case !seen:
		return snapshot.ActivityActive
	case cur.ReadIOs > prev.ReadIOs,
		cur.WriteIOs > prev.WriteIOs,
		cur.IOTicks-prev.IOTicks > busyTickThreshold:
		return snapshot.ActivityActive
	}
	return snapshot.ActivityIdle
}

// probe runs smartctl -i, -H and -A. Each field falls back on its own to
// the cached value, so one failing invocation never blanks the others.
func (d *DiskExtractor) probe(ctx context.Context, dev string, cached snapshot.DiskRecord, hasCache bool) snapshot.DiskRecord {
	path := "/dev/" + dev
	rec := snapshot.DiskRecord{Device: dev}

	fallback := func(prev, def string) string {
		if hasCache && prev != "" {
			return prev
		}
		return def
	}

	info := d.run.Run(ctx, "smartctl -i "+path, toolTimeout)
	if v, ok := parsers.ParseSmartModel(info); ok {
		rec.Model = v
	} else {
		rec.Model = fallback(cached.Model, snapshot.Unknown)
	}
	if v, ok := parsers.ParseSmartSerial(info); ok {
		rec.Serial = v
	} else {
		rec.Serial = fallback(cached.Serial, snapshot.Unknown)
	}
	if v, ok := parsers.ParseSmartCapacity(info); ok {
		rec.Capacity = v
	} else {
		rec.Capacity = fallback(cached.Capacity, snapshot.Unknown)
	}

	health := d.run.Run(ctx, "smartctl -H "+path, toolTimeout)
	// Empty output means the command never ran. Anything else, including an
	// unmatched verdict, goes through the health map.
	if health != "" {
		rec.Health = parsers.MapHealth(parsers.ParseSmartHealth(health))
	} else {
		rec.Health = fallback(cached.Health, snapshot.DetectFailed)
	}

	attrs := d.run.Run(ctx, "smartctl -A "+path, toolTimeout)
	if v, ok := parsers.ParseSmartTemperature(attrs); ok {
		rec.Temperature = v
	} else {
		rec.Temperature = fallback(cached.Temperature, snapshot.Unknown)
	}
	if v, ok := parsers.ParseSmartPowerOnHours(attrs, strings.Contains(strings.ToLower(dev), "nvme")); ok {
		rec.PowerOnHours = v
	} else {
		rec.PowerOnHours = fallback(cached.PowerOnHours, snapshot.Unknown)
	}

	switch history := parsers.ParseTemperatureHistory(attrs); {
	case history != nil:
		rec.Attributes = history
	case hasCache && cached.Attributes != nil:
		rec.Attributes = cached.Clone().Attributes
	default:
		rec.Attributes = map[string]string{}
	}

	d.log.Debug("probed %s: model=%q health=%s temp=%s", dev, rec.Model, rec.Health, rec.Temperature)
	return rec
}
