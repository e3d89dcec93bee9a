package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/nasmon/internal/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentConfigVersion, cfg.Version)
	assert.Equal(t, 22, cfg.Port)
	assert.Equal(t, 60*time.Second, cfg.ScanInterval)
	assert.Equal(t, 30*time.Second, cfg.UPSScanInterval)
	assert.Equal(t, 3, cfg.PoolSize)
	assert.Equal(t, "ping", cfg.Probe)
	assert.False(t, cfg.EnableDocker)
	assert.NotNil(t, cfg.IgnoreDisks)
	assert.Empty(t, cfg.IgnoreDisks)
}

func TestLoad(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	dir := t.TempDir()

	path := writeFile(t, dir, ConfigFileName, `
version: 1
host: 192.168.1.20
port: 2222
username: admin
password: hunter2
root_password: toor
ssh_key: ~/.ssh/id_ed25519
scan_interval: 2m
ups_scan_interval: 15s
ignore_disks:
  - /dev/sdb
  - sdc
enable_docker: true
mac: 00:1a:2b:3c:4d:5e
probe: tcp
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "192.168.1.20", cfg.Host)
	assert.Equal(t, 2222, cfg.Port)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "hunter2", cfg.Password)
	assert.Equal(t, "toor", cfg.RootPassword)
	assert.Equal(t, filepath.Join(home, ".ssh", "id_ed25519"), cfg.SSHKey)
	assert.Equal(t, 2*time.Minute, cfg.ScanInterval)
	assert.Equal(t, 15*time.Second, cfg.UPSScanInterval)
	assert.Equal(t, []string{"sdb", "sdc"}, cfg.IgnoreDisks)
	assert.True(t, cfg.EnableDocker)
	assert.Equal(t, "00:1a:2b:3c:4d:5e", cfg.MAC)
	assert.Equal(t, "tcp", cfg.Probe)

	// Unset keys keep their defaults.
	assert.Equal(t, DefaultPoolSize, cfg.PoolSize)
	assert.Equal(t, DefaultMetricsAddr, cfg.MetricsAddr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ConfigFileName, "host: nas\nusername: admin\npassword: fromfile\n")

	t.Setenv("NASMON_PASSWORD", "fromenv")
	t.Setenv("NASMON_POOL_SIZE", "5")
	t.Setenv("NASMON_ENABLE_DOCKER", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Password)
	assert.Equal(t, 5, cfg.PoolSize)
	assert.True(t, cfg.EnableDocker)
	assert.Equal(t, "admin", cfg.Username)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	path := writeFile(t, t.TempDir(), ConfigFileName, "host: [unclosed\n")
	_, err = Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestFind(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	cwd := t.TempDir()
	t.Chdir(cwd)

	t.Run("explicit path", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "custom.yaml", "host: nas\n")
		got, err := Find(path)
		require.NoError(t, err)
		assert.Equal(t, path, got)
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Find(filepath.Join(cwd, "nope.yaml"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.ErrConfig))
	})

	t.Run("nothing found", func(t *testing.T) {
		got, err := Find("")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("global config", func(t *testing.T) {
		global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile)
		require.NoError(t, os.MkdirAll(filepath.Dir(global), 0o755))
		require.NoError(t, os.WriteFile(global, []byte("host: nas\n"), 0o600))

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, global, got)
	})

	t.Run("local config wins", func(t *testing.T) {
		writeFile(t, cwd, ConfigFileName, "host: nas\n")

		got, err := Find("")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, ConfigFileName), got)
	})
}

func TestLoadOrDefault_NoFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	t.Setenv("NASMON_HOST", "nas.lan")

	cfg, path, err := LoadOrDefault("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, "nas.lan", cfg.Host)
	assert.Equal(t, DefaultScanInterval, cfg.ScanInterval)
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)
	cfg := DefaultConfig()
	cfg.Host = "nas.lan"
	cfg.Username = "admin"
	cfg.Password = "secret"
	cfg.IgnoreDisks = []string{"sdb"}
	cfg.ScanInterval = 90 * time.Second

	require.NoError(t, Write(path, cfg))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "scan_interval: 1m30s")
	assert.NotContains(t, string(data), "root_password")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestSetValue(t *testing.T) {
	path := writeFile(t, t.TempDir(), ConfigFileName, `# my nas
host: nas.lan # living room
username: admin
`)

	require.NoError(t, SetValue(path, "mac", "00:1a:2b:3c:4d:5e"))
	require.NoError(t, SetValue(path, "username", "root"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# my nas")
	assert.Contains(t, string(data), "# living room")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "00:1a:2b:3c:4d:5e", cfg.MAC)
	assert.Equal(t, "root", cfg.Username)
	assert.Equal(t, "nas.lan", cfg.Host)
}

func TestSetValue_Errors(t *testing.T) {
	assert.Error(t, SetValue(filepath.Join(t.TempDir(), "missing.yaml"), "mac", "x"))

	path := writeFile(t, t.TempDir(), ConfigFileName, "- a\n- b\n")
	assert.Error(t, SetValue(path, "mac", "x"))
}

func TestExpand(t *testing.T) {
	t.Setenv("HOME", "/home/nas")
	t.Setenv("USER", "admin")

	assert.Equal(t, "/home/nas/.ssh/id_rsa", Expand("${HOME}/.ssh/id_rsa"))
	assert.Equal(t, "/keys/admin", Expand("/keys/${USER}"))
	assert.Equal(t, "", Expand(""))
	assert.Equal(t, "/home/nas/.ssh/id_rsa", ExpandTilde("~/.ssh/id_rsa"))
	assert.Equal(t, "/home/nas", ExpandTilde("~"))
	assert.Equal(t, "/abs/key", ExpandTilde("/abs/key"))
}
