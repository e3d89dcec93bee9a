// Package snapshot defines the immutable poll result published by the
// orchestrator. Every field is always present: partial failures show up as
// sentinel strings, empty lists, or empty maps, never as missing keys.
package snapshot

// Field sentinels.
const (
	Unknown      = "未知"
	NotDetected  = "未检测"
	DetectFailed = "检测失败"
)

// Disk activity labels.
const (
	ActivityActive  = "活动中"
	ActivityIdle    = "空闲中"
	ActivityDormant = "休眠中"
)

// Disk power states as reported by sysfs or hdparm.
const (
	PowerActive  = "active"
	PowerStandby = "standby"
	PowerSleep   = "sleep"
	PowerUnknown = "unknown"
)

// Host status values.
const (
	StatusOn        = "on"
	StatusOff       = "off"
	StatusRebooting = "rebooting"
)

// VM states.
const (
	VMRunning    = "running"
	VMShutOff    = "shut off"
	VMPaused     = "paused"
	VMCrashed    = "crashed"
	VMRebooting  = "rebooting"
	VMDestroying = "destroying"
)

// Snapshot is one complete poll result. Treat published values as read-only;
// use Clone before changing anything.
type Snapshot struct {
	Disks       []DiskRecord           `json:"disks" yaml:"disks"`
	System      SystemInfo             `json:"system" yaml:"system"`
	PowerBackup PowerBackupInfo        `json:"ups" yaml:"ups"`
	VMs         []VMRecord             `json:"vms" yaml:"vms"`
	Containers  []ContainerRecord      `json:"docker_containers" yaml:"docker_containers"`
	Pools       []StoragePoolRecord    `json:"zpools" yaml:"zpools"`
	Scrub       map[string]ScrubStatus `json:"scrub_status" yaml:"scrub_status"`
}

// DiskRecord describes one block device.
type DiskRecord struct {
	Device       string            `json:"device" yaml:"device"`
	Status       string            `json:"status" yaml:"status"`
	PowerState   string            `json:"power_state" yaml:"power_state"`
	Model        string            `json:"model" yaml:"model"`
	Serial       string            `json:"serial" yaml:"serial"`
	Capacity     string            `json:"capacity" yaml:"capacity"`
	Health       string            `json:"health" yaml:"health"`
	Temperature  string            `json:"temperature" yaml:"temperature"`
	PowerOnHours string            `json:"power_on_hours" yaml:"power_on_hours"`
	Attributes   map[string]string `json:"attributes" yaml:"attributes"`
}

// SystemInfo holds host-level readings. Memory values are bytes; 0 means unknown.
type SystemInfo struct {
	Status                 string                 `json:"status" yaml:"status"`
	UptimeSeconds          float64                `json:"uptime_seconds" yaml:"uptime_seconds"`
	Uptime                 string                 `json:"uptime" yaml:"uptime"`
	CPUTemperature         string                 `json:"cpu_temperature" yaml:"cpu_temperature"`
	MotherboardTemperature string                 `json:"motherboard_temperature" yaml:"motherboard_temperature"`
	MemoryTotal            uint64                 `json:"memory_total" yaml:"memory_total"`
	MemoryUsed             uint64                 `json:"memory_used" yaml:"memory_used"`
	MemoryAvailable        uint64                 `json:"memory_available" yaml:"memory_available"`
	Volumes                map[string]VolumeUsage `json:"volumes" yaml:"volumes"`
}

// VolumeUsage is one filesystem usage row keyed by mount point.
type VolumeUsage struct {
	Filesystem string `json:"filesystem" yaml:"filesystem"`
	Size       string `json:"size" yaml:"size"`
	Used       string `json:"used" yaml:"used"`
	Available  string `json:"available" yaml:"available"`
	UsePercent string `json:"use_percent" yaml:"use_percent"`
}

// PowerBackupInfo describes the UPS. The zero value means no UPS was found.
type PowerBackupInfo struct {
	Name          string `json:"name" yaml:"name"`
	Model         string `json:"model" yaml:"model"`
	Status        string `json:"status" yaml:"status"`
	BatteryLevel  string `json:"battery_level" yaml:"battery_level"`
	Runtime       string `json:"runtime_remaining" yaml:"runtime_remaining"`
	OutputVoltage string `json:"output_voltage" yaml:"output_voltage"`
	Load          string `json:"load_percent" yaml:"load_percent"`
	Type          string `json:"ups_type" yaml:"ups_type"`
	LastUpdate    string `json:"last_update" yaml:"last_update"`
}

// Present reports whether a UPS was detected.
func (p PowerBackupInfo) Present() bool {
	return p.Name != ""
}

// VMRecord is one libvirt domain.
type VMRecord struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	State string `json:"state" yaml:"state"`
	Title string `json:"title" yaml:"title"`
}

// ContainerRecord is one docker container.
type ContainerRecord struct {
	Name   string `json:"name" yaml:"name"`
	Status string `json:"status" yaml:"status"`
}

// StoragePoolRecord is one row of `zpool list`.
type StoragePoolRecord struct {
	Name          string `json:"name" yaml:"name"`
	Health        string `json:"health" yaml:"health"`
	Size          string `json:"size" yaml:"size"`
	Alloc         string `json:"alloc" yaml:"alloc"`
	Free          string `json:"free" yaml:"free"`
	Checkpoint    string `json:"checkpoint" yaml:"checkpoint"`
	ExpandSize    string `json:"expand_size" yaml:"expand_size"`
	Fragmentation string `json:"fragmentation" yaml:"fragmentation"`
	Capacity      string `json:"capacity" yaml:"capacity"`
	Dedup         string `json:"dedup" yaml:"dedup"`
}

// ScrubStatus summarises the scan line of `zpool status`.
type ScrubStatus struct {
	State      string  `json:"state" yaml:"state"`
	InProgress bool    `json:"in_progress" yaml:"in_progress"`
	Progress   float64 `json:"progress" yaml:"progress"`
	Rate       string  `json:"rate" yaml:"rate"`
	ETA        string  `json:"eta" yaml:"eta"`
	Issued     string  `json:"issued" yaml:"issued"`
	Repaired   string  `json:"repaired" yaml:"repaired"`
	Errors     string  `json:"errors" yaml:"errors"`
	LastRun    string  `json:"last_run" yaml:"last_run"`
}

// DefaultSystem is the system section used when the host is unreachable.
func DefaultSystem() SystemInfo {
	return SystemInfo{
		Status:                 StatusOff,
		Uptime:                 Unknown,
		CPUTemperature:         Unknown,
		MotherboardTemperature: Unknown,
		Volumes:                map[string]VolumeUsage{},
	}
}

// Default returns the all-unknown snapshot published while the host is offline.
func Default() Snapshot {
	return Snapshot{
		Disks:      []DiskRecord{},
		System:     DefaultSystem(),
		VMs:        []VMRecord{},
		Containers: []ContainerRecord{},
		Pools:      []StoragePoolRecord{},
		Scrub:      map[string]ScrubStatus{},
	}
}

// Clone returns a deep copy. Nil collections come back as empty ones.
func (s Snapshot) Clone() Snapshot {
	out := s

	out.Disks = make([]DiskRecord, len(s.Disks))
	for i, d := range s.Disks {
		out.Disks[i] = d.Clone()
	}

	out.System.Volumes = make(map[string]VolumeUsage, len(s.System.Volumes))
	for k, v := range s.System.Volumes {
		out.System.Volumes[k] = v
	}

	out.VMs = append(make([]VMRecord, 0, len(s.VMs)), s.VMs...)
	out.Containers = append(make([]ContainerRecord, 0, len(s.Containers)), s.Containers...)
	out.Pools = append(make([]StoragePoolRecord, 0, len(s.Pools)), s.Pools...)

	out.Scrub = make(map[string]ScrubStatus, len(s.Scrub))
	for k, v := range s.Scrub {
		out.Scrub[k] = v
	}
	return out
}

// Clone returns a deep copy of the record.
func (d DiskRecord) Clone() DiskRecord {
	out := d
	out.Attributes = make(map[string]string, len(d.Attributes))
	for k, v := range d.Attributes {
		out.Attributes[k] = v
	}
	return out
}

// UndetectedDisk is the record for a device whose expensive probe has never run.
func UndetectedDisk(device, activity, power string) DiskRecord {
	return DiskRecord{
		Device:       device,
		Status:       activity,
		PowerState:   power,
		Model:        NotDetected,
		Serial:       NotDetected,
		Capacity:     NotDetected,
		Health:       NotDetected,
		Temperature:  NotDetected,
		PowerOnHours: NotDetected,
		Attributes:   map[string]string{},
	}
}
