package credential

import (
	"errors"
	"fmt"
)

var (
	ErrCredential    = errors.New("credential request failed")
	ErrInvalidInput  = errors.New("api key is required")
	ErrMissingSecret = errors.New("response has no client secret")
)

// Error is returned for every failed credential request. StatusCode is zero
// when no HTTP response was received.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("status %d: %v", e.StatusCode, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("status %d", e.StatusCode)
	case e.Err != nil:
		return e.Err.Error()
	}
	return ErrCredential.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrCredential
}
