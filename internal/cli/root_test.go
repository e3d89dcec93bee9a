package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	naserrors "github.com/rileyhilliard/nasmon/internal/errors"
)

func TestIsUnknownCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "unknown command error",
			err:  errors.New(`unknown command "foo" for "nasmon"`),
			want: true,
		},
		{
			name: "unknown flag error",
			err:  errors.New(`unknown flag: --foo`),
			want: true,
		},
		{
			name: "other error",
			err:  errors.New("connection failed"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isUnknownCommandError(tt.err))
		})
	}
}

func TestExtractUnknownCommand(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "standard cobra format",
			err:  errors.New(`unknown command "stauts" for "nasmon"`),
			want: "stauts",
		},
		{
			name: "flag error has no command",
			err:  errors.New(`unknown flag: --foo`),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractUnknownCommand(tt.err))
		})
	}
}

func TestWriteError_SuggestsCommand(t *testing.T) {
	var buf bytes.Buffer
	writeError(&buf, errors.New(`unknown command "stauts" for "nasmon"`))

	out := buf.String()
	assert.Contains(t, out, `Unknown command "stauts"`)
	assert.Contains(t, out, "Did you mean: status?")
}

func TestWriteError_Structured(t *testing.T) {
	var buf bytes.Buffer
	writeError(&buf, naserrors.New(naserrors.ErrSSH, "NAS nas.test is offline", "Check the cable"))

	assert.Equal(t, "✗ NAS nas.test is offline\n\n  Check the cable\n", buf.String())
}

func TestWriteError_Plain(t *testing.T) {
	var buf bytes.Buffer
	writeError(&buf, errors.New("boom"))
	assert.Equal(t, "✗ boom\n", buf.String())
}

func TestWriteError_AlreadyReported(t *testing.T) {
	var buf bytes.Buffer
	writeError(&buf, errReported)
	assert.Empty(t, buf.String())
}

func TestCommandNames(t *testing.T) {
	names := commandNames()
	for _, want := range []string{"status", "watch", "serve", "reboot", "shutdown", "vm", "container", "scrub", "macs", "init", "version", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeTestConfig(t)

	cfg, got, err := loadConfig()
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "nas.test", cfg.Host)
	assert.Equal(t, "admin", cfg.Username)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	orig := configFlag
	configFlag = "/nonexistent/nasmon.yaml"
	t.Cleanup(func() { configFlag = orig })

	_, _, err := loadConfig()
	require.Error(t, err)
	assert.True(t, naserrors.IsCode(err, naserrors.ErrConfig))
}
