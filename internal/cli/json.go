package cli

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"strings"

	"github.com/rileyhilliard/nasmon/internal/errors"
)

// JSONEnvelope wraps command output in a consistent structure for machine parsing.
// All JSON output, including the /snapshot endpoint, uses this envelope.
type JSONEnvelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *JSONError `json:"error,omitempty"`
}

// JSONError provides structured error information for machine parsing.
type JSONError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// Error codes for machine-readable output.
const (
	ErrCodeConfigNotFound = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "CONFIG_INVALID"
	ErrCodeSSHConnection  = "SSH_CONNECTION_FAILED"
	ErrCodeCommandFailed  = "COMMAND_FAILED"
	ErrCodePoolExhausted  = "POOL_EXHAUSTED"
	ErrCodeActionRejected = "ACTION_REJECTED"
	ErrCodeHostOffline    = "HOST_OFFLINE"
	ErrCodeUnknown        = "UNKNOWN"
)

// WriteJSONSuccess writes a successful response with data to the writer.
func WriteJSONSuccess(w io.Writer, data any) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: true, Data: data})
}

// WriteJSONFromError converts a Go error to a JSON error response.
func WriteJSONFromError(w io.Writer, err error) error {
	return writeJSONEnvelope(w, JSONEnvelope{Success: false, Error: ErrorToJSON(err)})
}

// writeJSONEnvelope writes the envelope with consistent formatting.
func writeJSONEnvelope(w io.Writer, env JSONEnvelope) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(env)
}

// ErrorToJSON converts a Go error to a JSONError with appropriate code mapping.
func ErrorToJSON(err error) *JSONError {
	if err == nil {
		return nil
	}

	var nasErr *errors.Error
	if stderrors.As(err, &nasErr) {
		return &JSONError{
			Code:       mapErrorCode(nasErr.Code, nasErr.Message),
			Message:    nasErr.Message,
			Suggestion: nasErr.Suggestion,
		}
	}

	return &JSONError{
		Code:    ErrCodeUnknown,
		Message: err.Error(),
	}
}

// mapErrorCode maps internal error codes to machine-readable codes.
func mapErrorCode(internalCode, message string) string {
	switch internalCode {
	case errors.ErrConfig:
		msgLower := strings.ToLower(message)
		if strings.Contains(msgLower, "not found") || strings.Contains(msgLower, "couldn't find") {
			return ErrCodeConfigNotFound
		}
		return ErrCodeConfigInvalid
	case errors.ErrSSH:
		if strings.Contains(strings.ToLower(message), "offline") {
			return ErrCodeHostOffline
		}
		return ErrCodeSSHConnection
	case errors.ErrExec:
		return ErrCodeCommandFailed
	case errors.ErrPool:
		return ErrCodePoolExhausted
	case errors.ErrAction:
		return ErrCodeActionRejected
	}

	return ErrCodeUnknown
}
