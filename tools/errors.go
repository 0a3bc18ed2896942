package tools

import "errors"

// Sentinel errors for the tool registry.
var (
	ErrNotFound  = errors.New("tool not found")
	ErrEmptyName = errors.New("tool name is empty")
)
