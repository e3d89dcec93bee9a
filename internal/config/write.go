package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig is the on-disk shape written by Write. Durations are kept as
// strings so the file reads "60s" rather than nanoseconds.
type fileConfig struct {
	Version         int      `yaml:"version"`
	Host            string   `yaml:"host"`
	Port            int      `yaml:"port"`
	Username        string   `yaml:"username"`
	Password        string   `yaml:"password,omitempty"`
	RootPassword    string   `yaml:"root_password,omitempty"`
	SSHKey          string   `yaml:"ssh_key,omitempty"`
	ScanInterval    string   `yaml:"scan_interval"`
	UPSScanInterval string   `yaml:"ups_scan_interval"`
	IgnoreDisks     []string `yaml:"ignore_disks,omitempty"`
	EnableDocker    bool     `yaml:"enable_docker"`
	MAC             string   `yaml:"mac,omitempty"`
	PoolSize        int      `yaml:"pool_size"`
	Probe           string   `yaml:"probe"`
	MetricsAddr     string   `yaml:"metrics_addr,omitempty"`
}

// Write serialises cfg to path as YAML, creating parent directories. The
// file holds credentials, so it is only readable by the owner.
func Write(path string, cfg *Config) error {
	out := fileConfig{
		Version:         cfg.Version,
		Host:            cfg.Host,
		Port:            cfg.Port,
		Username:        cfg.Username,
		Password:        cfg.Password,
		RootPassword:    cfg.RootPassword,
		SSHKey:          cfg.SSHKey,
		ScanInterval:    cfg.ScanInterval.String(),
		UPSScanInterval: cfg.UPSScanInterval.String(),
		IgnoreDisks:     cfg.IgnoreDisks,
		EnableDocker:    cfg.EnableDocker,
		MAC:             cfg.MAC,
		PoolSize:        cfg.PoolSize,
		Probe:           cfg.Probe,
		MetricsAddr:     cfg.MetricsAddr,
	}
	if out.Version == 0 {
		out.Version = CurrentConfigVersion
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&out); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetValue sets a top-level scalar key in an existing config file,
// preserving the rest of the document and its comments.
func SetValue(configPath, key, value string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse as yaml.Node to preserve structure
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	docNode := root.Content[0]
	if docNode.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	if valueNode := findMapValue(docNode, key); valueNode != nil {
		valueNode.Kind = yaml.ScalarNode
		valueNode.Tag = "!!str"
		valueNode.Value = value
		valueNode.Content = nil
	} else {
		docNode.Content = append(docNode.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value},
		)
	}

	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(&root); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()

	if err := os.WriteFile(configPath, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
