// Package metrics exposes published snapshots as Prometheus gauges. An
// Exporter is fed by subscribing Observe to the agent; every call replaces
// the previous readings so vanished disks, pools and guests drop out.
package metrics

import (
	"math"
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/internal/snapshot"
	"github.com/rileyhilliard/nasmon/internal/util"
)

const namespace = "nasmon"

// Exporter owns a private registry so several exporters can coexist in tests.
type Exporter struct {
	registry *prometheus.Registry
	mu       sync.Mutex

	up            prometheus.Gauge
	publishes     *prometheus.CounterVec
	uptime        prometheus.Gauge
	cpuTemp       prometheus.Gauge
	boardTemp     prometheus.Gauge
	memory        *prometheus.GaugeVec
	volumeUse     *prometheus.GaugeVec
	diskTemp      *prometheus.GaugeVec
	diskHealthy   *prometheus.GaugeVec
	diskActive    *prometheus.GaugeVec
	diskHours     *prometheus.GaugeVec
	poolHealthy   *prometheus.GaugeVec
	poolCapacity  *prometheus.GaugeVec
	scrubRunning  *prometheus.GaugeVec
	scrubProgress *prometheus.GaugeVec
	vmRunning     *prometheus.GaugeVec
	ctrRunning    *prometheus.GaugeVec
	upsBattery    prometheus.Gauge
	upsLoad       prometheus.Gauge
	upsRuntime    prometheus.Gauge
	upsPresent    prometheus.Gauge
}

// New registers every nasmon metric on a fresh registry along with the Go
// runtime and process collectors.
func New() *Exporter {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	gauge := func(name, help string) prometheus.Gauge {
		return f.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help})
	}
	gaugeVec := func(name, help string, labels ...string) *prometheus.GaugeVec {
		return f.NewGaugeVec(prometheus.GaugeOpts{Namespace: namespace, Name: name, Help: help}, labels)
	}

	return &Exporter{
		registry: reg,
		up:       gauge("up", "1 when the last poll reached the NAS"),
		publishes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_published_total",
			Help:      "Snapshots published, by host state",
		}, []string{"state"}),
		uptime:        gauge("uptime_seconds", "Host uptime"),
		cpuTemp:       gauge("cpu_temperature_celsius", "CPU temperature"),
		boardTemp:     gauge("board_temperature_celsius", "Motherboard temperature"),
		memory:        gaugeVec("memory_bytes", "Host memory", "kind"),
		volumeUse:     gaugeVec("volume_used_ratio", "Used fraction of each data volume", "mount"),
		diskTemp:      gaugeVec("disk_temperature_celsius", "Disk temperature", "device"),
		diskHealthy:   gaugeVec("disk_healthy", "1 when SMART reports the disk healthy", "device"),
		diskActive:    gaugeVec("disk_active", "1 when the disk saw I/O since the last poll", "device"),
		diskHours:     gaugeVec("disk_power_on_hours", "Disk power-on hours", "device"),
		poolHealthy:   gaugeVec("zpool_healthy", "1 when the pool is ONLINE", "pool"),
		poolCapacity:  gaugeVec("zpool_used_ratio", "Used fraction of the pool", "pool"),
		scrubRunning:  gaugeVec("zpool_scrub_running", "1 while a scrub is in progress", "pool"),
		scrubProgress: gaugeVec("zpool_scrub_progress_ratio", "Scrub completion", "pool"),
		vmRunning:     gaugeVec("vm_running", "1 when the VM is running", "vm"),
		ctrRunning:    gaugeVec("container_running", "1 when the container is running", "container"),
		upsBattery:    gauge("ups_battery_percent", "UPS battery charge"),
		upsLoad:       gauge("ups_load_percent", "UPS load"),
		upsRuntime:    gauge("ups_runtime_minutes", "UPS runtime remaining"),
		upsPresent:    gauge("ups_present", "1 when a UPS was detected"),
	}
}

// Registry returns the exporter's registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler serves the registry in the Prometheus text format.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{Registry: e.registry})
}

// TrackPool exposes command pool occupancy through stats, sampled at scrape time.
func (e *Exporter) TrackPool(stats func() (size, inUse, capacity int)) {
	f := promauto.With(e.registry)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "pool_sessions_open", Help: "Open command sessions",
	}, func() float64 {
		size, _, _ := stats()
		return float64(size)
	})
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "pool_sessions_busy", Help: "Command sessions running a command",
	}, func() float64 {
		_, inUse, _ := stats()
		return float64(inUse)
	})
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Name: "pool_sessions_max", Help: "Command session ceiling",
	}, func() float64 {
		_, _, capacity := stats()
		return float64(capacity)
	})
}

// Observe replaces every gauge with the readings in s. Unparseable
// readings drop labelled series and set plain gauges to NaN, never zero.
func (e *Exporter) Observe(s snapshot.Snapshot) {
	e.mu.Lock()
	defer e.mu.Unlock()

	online := s.System.Status == snapshot.StatusOn
	e.up.Set(boolGauge(online))
	if online {
		e.publishes.WithLabelValues("online").Inc()
	} else {
		e.publishes.WithLabelValues("offline").Inc()
	}

	e.uptime.Set(s.System.UptimeSeconds)
	setIfNumber(e.cpuTemp, s.System.CPUTemperature)
	setIfNumber(e.boardTemp, s.System.MotherboardTemperature)

	e.memory.Reset()
	if s.System.MemoryTotal > 0 {
		e.memory.WithLabelValues("total").Set(float64(s.System.MemoryTotal))
		e.memory.WithLabelValues("used").Set(float64(s.System.MemoryUsed))
		e.memory.WithLabelValues("available").Set(float64(s.System.MemoryAvailable))
	}

	e.volumeUse.Reset()
	for mount, v := range s.System.Volumes {
		if pct, ok := util.LeadingNumber(v.UsePercent); ok {
			e.volumeUse.WithLabelValues(mount).Set(pct / 100)
		}
	}

	e.observeDisks(s.Disks)
	e.observePools(s.Pools, s.Scrub)

	e.vmRunning.Reset()
	for _, vm := range s.VMs {
		e.vmRunning.WithLabelValues(vm.Name).Set(boolGauge(vm.State == snapshot.VMRunning))
	}
	e.ctrRunning.Reset()
	for _, c := range s.Containers {
		e.ctrRunning.WithLabelValues(c.Name).Set(boolGauge(c.Status == "running"))
	}

	e.observePowerBackup(s.PowerBackup)
}

func (e *Exporter) observeDisks(disks []snapshot.DiskRecord) {
	e.diskTemp.Reset()
	e.diskHealthy.Reset()
	e.diskActive.Reset()
	e.diskHours.Reset()

	for _, d := range disks {
		if t, ok := util.LeadingNumber(d.Temperature); ok {
			e.diskTemp.WithLabelValues(d.Device).Set(t)
		}
		if h, ok := util.LeadingNumber(d.PowerOnHours); ok {
			e.diskHours.WithLabelValues(d.Device).Set(h)
		}
		switch d.Health {
		case parsers.HealthGood:
			e.diskHealthy.WithLabelValues(d.Device).Set(1)
		case parsers.HealthFailed, parsers.HealthError, parsers.HealthCritical, parsers.HealthWarning:
			e.diskHealthy.WithLabelValues(d.Device).Set(0)
		}
		e.diskActive.WithLabelValues(d.Device).Set(boolGauge(d.Status == snapshot.ActivityActive))
	}
}

func (e *Exporter) observePools(pools []snapshot.StoragePoolRecord, scrub map[string]snapshot.ScrubStatus) {
	e.poolHealthy.Reset()
	e.poolCapacity.Reset()
	e.scrubRunning.Reset()
	e.scrubProgress.Reset()

	for _, p := range pools {
		e.poolHealthy.WithLabelValues(p.Name).Set(boolGauge(strings.EqualFold(p.Health, "ONLINE")))
		if pct, ok := util.LeadingNumber(p.Capacity); ok {
			e.poolCapacity.WithLabelValues(p.Name).Set(pct / 100)
		}
	}
	for name, st := range scrub {
		e.scrubRunning.WithLabelValues(name).Set(boolGauge(st.InProgress))
		e.scrubProgress.WithLabelValues(name).Set(st.Progress / 100)
	}
}

func (e *Exporter) observePowerBackup(ups snapshot.PowerBackupInfo) {
	e.upsPresent.Set(boolGauge(ups.Present()))
	setIfNumber(e.upsBattery, ups.BatteryLevel)
	setIfNumber(e.upsLoad, ups.Load)
	setIfNumber(e.upsRuntime, ups.Runtime)
}

func setIfNumber(g prometheus.Gauge, s string) {
	if v, ok := util.LeadingNumber(s); ok {
		g.Set(v)
		return
	}
	g.Set(math.NaN())
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
