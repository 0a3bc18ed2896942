package store

import "errors"

// Sentinel errors for store operations.
var (
	ErrInvalidKey  = errors.New("invalid key")
	ErrKeyNotFound = errors.New("key not found")
	ErrLoadFailed  = errors.New("load failed")
	ErrSaveFailed  = errors.New("save failed")
)
