package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Defaults applied when a field is left out of the config file.
const (
	DefaultPort            = 22
	DefaultScanInterval    = 60 * time.Second
	DefaultUPSScanInterval = 30 * time.Second
	DefaultPoolSize        = 3
	DefaultProbe           = "ping"
	DefaultMetricsAddr     = ":9877"
)

// Config represents the nasmon config file.
type Config struct {
	Version int `yaml:"version" mapstructure:"version"`

	// Host is the NAS address or an alias from ~/.ssh/config.
	Host     string `yaml:"host" mapstructure:"host"`
	Port     int    `yaml:"port" mapstructure:"port"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`

	// RootPassword is tried for sudo before Password.
	RootPassword string `yaml:"root_password" mapstructure:"root_password"`

	// SSHKey is an optional private key path. Supports ~ and ${HOME}.
	SSHKey string `yaml:"ssh_key" mapstructure:"ssh_key"`

	ScanInterval    time.Duration `yaml:"scan_interval" mapstructure:"scan_interval"`
	UPSScanInterval time.Duration `yaml:"ups_scan_interval" mapstructure:"ups_scan_interval"`

	// IgnoreDisks lists device names (sda, nvme0n1) that are never probed.
	IgnoreDisks []string `yaml:"ignore_disks" mapstructure:"ignore_disks"`

	EnableDocker bool `yaml:"enable_docker" mapstructure:"enable_docker"`

	// MAC identifies the NAS across address changes. Picked during init.
	MAC string `yaml:"mac" mapstructure:"mac"`

	PoolSize int `yaml:"pool_size" mapstructure:"pool_size"`

	// Probe selects the reachability check: "ping" or "tcp".
	Probe string `yaml:"probe" mapstructure:"probe"`

	// MetricsAddr is where `nasmon serve` exposes Prometheus metrics.
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version:         CurrentConfigVersion,
		Port:            DefaultPort,
		ScanInterval:    DefaultScanInterval,
		UPSScanInterval: DefaultUPSScanInterval,
		IgnoreDisks:     []string{},
		PoolSize:        DefaultPoolSize,
		Probe:           DefaultProbe,
		MetricsAddr:     DefaultMetricsAddr,
	}
}
