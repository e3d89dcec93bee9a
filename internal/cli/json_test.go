package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rileyhilliard/nasmon/internal/errors"
)

func TestWriteJSONSuccess(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONSuccess(&buf, map[string]string{"key": "value"}))

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))

	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	data, ok := env.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "value", data["key"])
}

func TestWriteJSONFromError(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(errors.ErrSSH, "NAS nas.test is offline", "Check power")
	require.NoError(t, WriteJSONFromError(&buf, err))

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))

	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeHostOffline, env.Error.Code)
	assert.Equal(t, "NAS nas.test is offline", env.Error.Message)
	assert.Equal(t, "Check power", env.Error.Suggestion)
}

func TestErrorToJSON(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"config not found", errors.New(errors.ErrConfig, "Config file not found", ""), ErrCodeConfigNotFound},
		{"config invalid", errors.New(errors.ErrConfig, "Port 0 is out of range", ""), ErrCodeConfigInvalid},
		{"ssh", errors.New(errors.ErrSSH, "Failed to connect", ""), ErrCodeSSHConnection},
		{"offline", errors.New(errors.ErrSSH, "NAS x is offline", ""), ErrCodeHostOffline},
		{"exec", errors.New(errors.ErrExec, "Command failed", ""), ErrCodeCommandFailed},
		{"pool", errors.New(errors.ErrPool, "No session available", ""), ErrCodePoolExhausted},
		{"action", errors.New(errors.ErrAction, "Unknown action", ""), ErrCodeActionRejected},
		{"wrapped", fmt.Errorf("outer: %w", errors.New(errors.ErrAction, "Unknown action", "")), ErrCodeActionRejected},
		{"plain", fmt.Errorf("boom"), ErrCodeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorToJSON(tt.err).Code)
		})
	}
}

func TestErrorToJSON_Nil(t *testing.T) {
	assert.Nil(t, ErrorToJSON(nil))
}
