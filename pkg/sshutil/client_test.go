package sshutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rileyhilliard/nasmon/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSSHConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestResolveSSHSettings(t *testing.T) {
	cfgPath := writeSSHConfig(t, `
Host nas
    HostName 192.168.1.10
    User admin
    Port 2222
    IdentityFile /keys/nas_ed25519
`)
	t.Setenv("USER", "localuser")

	tests := []struct {
		name     string
		host     string
		opts     DialOptions
		wantAddr string
		wantUser string
		wantKey  string
	}{
		{
			name:     "plain ip uses defaults",
			host:     "10.0.0.5",
			wantAddr: "10.0.0.5:22",
			wantUser: "localuser",
		},
		{
			name:     "alias resolves from ssh config",
			host:     "nas",
			wantAddr: "192.168.1.10:2222",
			wantUser: "admin",
			wantKey:  "/keys/nas_ed25519",
		},
		{
			name:     "user@host:port overrides config",
			host:     "root@nas:2200",
			wantAddr: "192.168.1.10:2200",
			wantUser: "root",
			wantKey:  "/keys/nas_ed25519",
		},
		{
			name:     "dial options win",
			host:     "nas",
			opts:     DialOptions{User: "ops", Port: 22, KeyFile: "/other/key"},
			wantAddr: "192.168.1.10:22",
			wantUser: "ops",
			wantKey:  "/other/key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := resolveSSHSettings(tt.host, tt.opts, cfgPath)
			assert.Equal(t, tt.wantAddr, s.address())
			assert.Equal(t, tt.wantUser, s.user)
			assert.Equal(t, tt.wantKey, s.identityFile)
		})
	}
}

func TestResolveSSHSettings_MissingConfig(t *testing.T) {
	s := resolveSSHSettings("admin@nas.local", DialOptions{}, "/nonexistent/config")
	assert.Equal(t, "nas.local:22", s.address())
	assert.Equal(t, "admin", s.user)
}

func TestBuildSSHConfig_Password(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	cfg, err := buildSSHConfig(&sshSettings{user: "admin"}, DialOptions{Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "admin", cfg.User)
	assert.Len(t, cfg.Auth, 2, "password plus keyboard-interactive")
	assert.NotNil(t, cfg.HostKeyCallback)
}

func TestBuildSSHConfig_NoAuth(t *testing.T) {
	t.Setenv("SSH_AUTH_SOCK", "")

	_, err := buildSSHConfig(&sshSettings{user: "admin", identityFile: "/nonexistent/key"}, DialOptions{})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrSSH))
}

func TestPasswordChallenge(t *testing.T) {
	answers, err := passwordChallenge("pw")("admin", "", []string{"Password:", "Again:"}, []bool{false, false})
	require.NoError(t, err)
	assert.Equal(t, []string{"pw", "pw"}, answers)
}

func TestPreprocessSSHConfig_StopsAtMatch(t *testing.T) {
	path := writeSSHConfig(t, "Host a\n  User x\nMatch host b\n  User y\n")

	content, line, err := preprocessSSHConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 3, line)
	assert.NotContains(t, string(content), "Match")
}

func TestClientNilConnection(t *testing.T) {
	c := &Client{Host: "nas"}
	assert.NoError(t, c.Close())

	_, _, code, err := c.Exec("uptime")
	assert.Equal(t, -1, code)
	assert.True(t, errors.IsCode(err, errors.ErrSSH))
}
