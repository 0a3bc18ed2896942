package session

import "errors"

// Sentinel errors for turn log operations.
var (
	ErrInvalidID  = errors.New("invalid session id")
	ErrCorrupt    = errors.New("session record corrupt")
	ErrLoadFailed = errors.New("session load failed")
	ErrSaveFailed = errors.New("session save failed")
)
