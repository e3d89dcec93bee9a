package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/nasmon/internal/config"
	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/rileyhilliard/nasmon/internal/parsers"
	"github.com/rileyhilliard/nasmon/pkg/sshutil"
)

// stubInit answers the init prompts and the MAC picker.
func stubInit(t *testing.T, answers initAnswers) {
	t.Helper()
	origPrompt, origPick := promptInit, pickMAC
	promptInit = func(preset string, _ []sshutil.SSHHostEntry) (initAnswers, error) {
		if preset != "" {
			answers.Host = preset
		}
		return answers, nil
	}
	pickMAC = func(ifaces []parsers.Interface, _ string) (string, error) {
		return ifaces[0].MAC, nil
	}
	t.Cleanup(func() {
		promptInit = origPrompt
		pickMAC = origPick
	})
}

func TestInit_WritesConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	useFakeNAS(t, true, nil)
	stubPrompts(t, true)
	stubInit(t, initAnswers{Host: "nas.test", Username: "admin", Password: "secret", EnableDocker: true})

	require.NoError(t, initCommand(context.Background(), InitOptions{}))

	cfg, err := config.Load(config.ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, "nas.test", cfg.Host)
	assert.Equal(t, "admin", cfg.Username)
	assert.Equal(t, "secret", cfg.Password)
	assert.True(t, cfg.EnableDocker)
	assert.Equal(t, "00:11:32:aa:bb:cc", cfg.MAC)
	assert.Equal(t, config.DefaultScanInterval, cfg.ScanInterval)
}

func TestInit_Global(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Chdir(t.TempDir())
	useFakeNAS(t, true, nil)
	stubPrompts(t, true)
	stubInit(t, initAnswers{Username: "admin", Password: "secret"})

	require.NoError(t, initCommand(context.Background(), InitOptions{Host: "nas.test", Global: true}))

	path := filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile)
	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "nas.test", cfg.Host)

	_, err = os.Stat(config.ConfigFileName)
	assert.True(t, os.IsNotExist(err))
}

func TestInit_ExistingConfigDeclined(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(config.ConfigFileName, []byte("host: old.nas\n"), 0o600))
	asked := stubPrompts(t, false)
	stubInit(t, initAnswers{Host: "nas.test", Password: "secret"})

	require.NoError(t, initCommand(context.Background(), InitOptions{}))

	require.Len(t, *asked, 1)
	assert.Contains(t, (*asked)[0], "already exists")
	data, err := os.ReadFile(config.ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, "host: old.nas\n", string(data))
}

func TestInit_ForceOverwrites(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile(config.ConfigFileName, []byte("host: old.nas\n"), 0o600))
	useFakeNAS(t, true, nil)
	asked := stubPrompts(t, true)
	stubInit(t, initAnswers{Host: "nas.test", Username: "admin", Password: "secret"})

	require.NoError(t, initCommand(context.Background(), InitOptions{Overwrite: true}))

	assert.Empty(t, *asked)
	cfg, err := config.Load(config.ConfigFileName)
	require.NoError(t, err)
	assert.Equal(t, "nas.test", cfg.Host)
}

func TestInit_InvalidAnswers(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SSH_AUTH_SOCK", "")
	t.Chdir(t.TempDir())
	stubPrompts(t, true)
	stubInit(t, initAnswers{Host: "nas.test", Username: "admin"})

	err := initCommand(context.Background(), InitOptions{})

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	_, statErr := os.Stat(config.ConfigFileName)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInit_NeedsTerminal(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Chdir(t.TempDir())

	orig := interactive
	interactive = func() bool { return false }
	t.Cleanup(func() { interactive = orig })

	err := initCommand(context.Background(), InitOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestInitConfigPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, config.ConfigFileName, initConfigPath(false))
	assert.Equal(t, filepath.Join(home, config.GlobalConfigDir, config.GlobalConfigFile), initConfigPath(true))
}
