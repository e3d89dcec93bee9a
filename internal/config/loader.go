package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = "nasmon.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/nasmon"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. NASMON_PASSWORD.
	EnvPrefix = "NASMON"
)

// Load reads config from the specified path. Environment variables named
// NASMON_<KEY> override file values.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'nasmon init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. nasmon.yaml in current directory
// 3. ~/.config/nasmon/config.yaml
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	localConfig := filepath.Join(cwd, ConfigFileName)
	if _, err := os.Stat(localConfig); err == nil {
		return localConfig, nil
	}

	if global := GlobalPath(); global != "" {
		if _, err := os.Stat(global); err == nil {
			return global, nil
		}
	}

	return "", nil
}

// GlobalPath returns ~/.config/nasmon/config.yaml, or "" without a home dir.
func GlobalPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
}

// LoadOrDefault loads config from the found path, or returns defaults with
// environment overrides applied if no file exists.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "environment")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// setDefaults registers every key so AutomaticEnv can override keys the
// file leaves out.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("host", "")
	v.SetDefault("port", d.Port)
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("root_password", "")
	v.SetDefault("ssh_key", "")
	v.SetDefault("scan_interval", d.ScanInterval.String())
	v.SetDefault("ups_scan_interval", d.UPSScanInterval.String())
	v.SetDefault("ignore_disks", []string{})
	v.SetDefault("enable_docker", false)
	v.SetDefault("mac", "")
	v.SetDefault("pool_size", d.PoolSize)
	v.SetDefault("probe", d.Probe)
	v.SetDefault("metrics_addr", d.MetricsAddr)
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, source string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}

	// A comma-separated env value arrives as one element.
	if len(cfg.IgnoreDisks) == 1 && strings.Contains(cfg.IgnoreDisks[0], ",") {
		cfg.IgnoreDisks = strings.Split(cfg.IgnoreDisks[0], ",")
	}
	for i, d := range cfg.IgnoreDisks {
		cfg.IgnoreDisks[i] = strings.TrimPrefix(strings.TrimSpace(d), "/dev/")
	}

	cfg.SSHKey = ExpandTilde(Expand(cfg.SSHKey))
	return cfg, nil
}
