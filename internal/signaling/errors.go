package signaling

import (
	"errors"
	"fmt"
)

var (
	ErrSignaling   = errors.New("offer exchange failed")
	ErrEmptyOffer  = errors.New("offer sdp is empty")
	ErrEmptyToken  = errors.New("ephemeral token is empty")
	ErrEmptyAnswer = errors.New("answer sdp is empty")
)

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
	return ErrSignaling.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrSignaling
}
