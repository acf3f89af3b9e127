package bundlegen

import (
	"errors"
	"fmt"
)

// TransportError reports a request that never produced an HTTP response.
type TransportError struct {
	Op        string
	RequestID string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is a non-success response carrying a structured message.
type ServerError struct {
	Op         string
	StatusCode int
	Message    string
	RequestID  string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("%s returned status %d: %s", e.Op, e.StatusCode, e.Message)
}

// MalformedResponseError is a response whose body could not be decoded into
// the expected schema.
type MalformedResponseError struct {
	Op         string
	StatusCode int
	Body       string
	Err        error
}

func (e *MalformedResponseError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: malformed response (status %d): %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: malformed response (status %d): %v: %q", e.Op, e.StatusCode, e.Err, e.Body)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Message returns the text a user should see for err: the server's message
// when there is one, otherwise the error text.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var serverErr *ServerError
	if errors.As(err, &serverErr) {
		return serverErr.Message
	}
	var malformed *MalformedResponseError
	if errors.As(err, &malformed) {
		return fmt.Sprintf("malformed server response (status %d)", malformed.StatusCode)
	}
	return err.Error()
}
