package service

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a failed remote call: a timeout, a transport failure, a non-2xx
// response, or a malformed body. Status is 0 when no response was received.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

// Error returns the user-facing reason. The operation name is kept out of
// the text so it can be embedded in messages like "Failed to add task: <reason>".
func (e *Error) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	case e.Status != 0:
		return StatusMessage(e.Status)
	default:
		return "request failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// StatusMessage is the generic message for a response without an error body.
func StatusMessage(status int) string {
	return fmt.Sprintf("HTTP %d", status)
}

// IsNotFound reports whether err is a remote 404.
func IsNotFound(err error) bool {
	var se *Error
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}
