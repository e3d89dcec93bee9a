package config

import (
	"fmt"
	"net"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/rileyhilliard/nasmon/internal/errors"
)

// minScanInterval keeps the poll from hammering the NAS.
const minScanInterval = 5 * time.Second

var macPattern = regexp.MustCompile(`^([0-9a-fA-F]{2}:){5}[0-9a-fA-F]{2}$`)

// ValidProbes are the accepted values for the probe key.
var ValidProbes = map[string]bool{"ping": true, "tcp": true}

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but nasmon only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade nasmon to a newer release.")
	}

	if strings.TrimSpace(cfg.Host) == "" {
		return errors.New(errors.ErrConfig,
			"No NAS host configured",
			"Set 'host' in nasmon.yaml (an address or an alias from ~/.ssh/config), or run 'nasmon init'.")
	}
	if err := validateHost(cfg.Host); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Use a hostname, an IP address, or an SSH config alias.")
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Port %d is out of range", cfg.Port),
			"Use a port between 1 and 65535 (SSH is usually 22).")
	}

	if cfg.Password == "" && cfg.SSHKey == "" && os.Getenv("SSH_AUTH_SOCK") == "" {
		return errors.New(errors.ErrConfig,
			"No way to authenticate",
			"Set 'password' or 'ssh_key', or start an ssh-agent.")
	}

	if cfg.SSHKey != "" {
		if _, err := os.Stat(cfg.SSHKey); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"SSH key not readable: "+cfg.SSHKey,
				"Check the ssh_key path.")
		}
	}

	if err := validateIntervals(cfg); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(), "Intervals take Go durations like '30s' or '2m'.")
	}

	if cfg.PoolSize < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("pool_size must be at least 1 (got %d)", cfg.PoolSize),
			fmt.Sprintf("The default of %d suits most NAS boxes.", DefaultPoolSize))
	}

	if !ValidProbes[cfg.Probe] {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("probe '%s' isn't valid", cfg.Probe),
			"Use 'ping' or 'tcp'. Pick 'tcp' when ICMP is blocked.")
	}

	if cfg.MAC != "" && !macPattern.MatchString(cfg.MAC) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("mac '%s' doesn't look like a MAC address", cfg.MAC),
			"Use the aa:bb:cc:dd:ee:ff form, or run 'nasmon macs' to list them.")
	}

	for _, d := range cfg.IgnoreDisks {
		if strings.TrimSpace(d) == "" {
			return errors.New(errors.ErrConfig,
				"ignore_disks has an empty entry",
				"Remove it or add a device name like 'sdb'.")
		}
	}

	if cfg.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.MetricsAddr); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("metrics_addr '%s' isn't a listen address", cfg.MetricsAddr),
				"Use host:port, for example ':9877'.")
		}
	}

	return nil
}

// validateHost checks that host is a bare address, not an SSH string.
func validateHost(host string) error {
	if strings.Contains(host, "@") {
		return fmt.Errorf("host '%s' looks like an SSH string - put the user in 'username'", host)
	}
	if strings.ContainsAny(host, "/ ") {
		return fmt.Errorf("host '%s' contains a path separator or space", host)
	}
	return nil
}

func validateIntervals(cfg *Config) error {
	if cfg.ScanInterval < minScanInterval {
		return fmt.Errorf("scan_interval %v is too short - use at least %v", cfg.ScanInterval, minScanInterval)
	}
	if cfg.UPSScanInterval < minScanInterval {
		return fmt.Errorf("ups_scan_interval %v is too short - use at least %v", cfg.UPSScanInterval, minScanInterval)
	}
	return nil
}
