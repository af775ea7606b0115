package session

import "errors"

var (
	ErrInvalidInput      = errors.New("api key is required")
	ErrConnectInProgress = errors.New("connect already in progress")
	ErrAlreadyConnected  = errors.New("session already connected")
	ErrClosed            = errors.New("orchestrator closed")
)
