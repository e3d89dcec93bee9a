package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrSSH,
		ErrExec,
		ErrPool,
		ErrAction,
	}

	seen := make(map[string]bool)
	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "host is required",
			suggestion: "Set 'host' in nasmon.yaml",
		},
		{
			name:       "pool error",
			code:       ErrPool,
			message:    "No free command channel",
			suggestion: "Lower the poll frequency or raise pool_size",
		},
		{
			name:       "action error",
			code:       ErrAction,
			message:    "Unknown VM action 'explode'",
			suggestion: "Use one of: start, shutdown, reboot, destroy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	cause := fmt.Errorf("dial tcp 10.0.0.5:22: i/o timeout")
	err := WrapWithCode(cause, ErrSSH, "Can't reach 'nas'", "Is the NAS powered on?")

	out := err.Error()
	assert.Contains(t, out, "✗ Can't reach 'nas'")
	assert.Contains(t, out, "i/o timeout")
	assert.Contains(t, out, "Is the NAS powered on?")
}

func TestWrapDefaultsToSSH(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), "session failed")
	assert.Equal(t, ErrSSH, err.Code)
	assert.Empty(t, err.Suggestion)
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := WrapWithCode(cause, ErrExec, "command failed", "")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestIsSentinel(t *testing.T) {
	sentinel := New(ErrPool, "exhausted", "")
	returned := New(ErrPool, "exhausted", "waited 5s")
	wrapped := fmt.Errorf("acquire: %w", returned)

	assert.True(t, errors.Is(wrapped, sentinel))
	assert.False(t, errors.Is(New(ErrPool, "other", ""), sentinel))
	assert.False(t, errors.Is(New(ErrSSH, "exhausted", ""), sentinel))
}

func TestIsCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
		want bool
	}{
		{"nil error", nil, ErrConfig, false},
		{"plain error", fmt.Errorf("x"), ErrConfig, false},
		{"matching code", New(ErrAction, "x", ""), ErrAction, true},
		{"other code", New(ErrAction, "x", ""), ErrPool, false},
		{"wrapped", fmt.Errorf("outer: %w", New(ErrPool, "x", "")), ErrPool, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCode(tt.err, tt.code))
		})
	}
}
