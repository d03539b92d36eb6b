package api

import (
	"encoding/json"
	"fmt"
)

// NetworkError wraps transport failures. Retryable; shown to the user
// as a generic message so an unreachable server is never mistaken for a
// rejected request.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError carries a structured {error} body. Reason may be a bare
// string or a nested detail object; Message stringifies it defensively
// before display.
type ServerError struct {
	StatusCode int
	Reason     interface{}
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message())
}

// Message renders the server's reason as a display string.
func (e *ServerError) Message() string {
	switch v := e.Reason.(type) {
	case nil:
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	case string:
		return v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

// AuthError marks an expired or rejected credential. The session has
// already been cleared by the time a caller sees this.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	if e.Reason == "" {
		return "authentication required"
	}
	return e.Reason
}

// MalformedResponseError marks a response body that could not be
// decoded. Kept distinct from ServerError so callers never present a
// broken server as a domain rejection.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed server response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// ValidationError reports required fields missing before submission.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}
