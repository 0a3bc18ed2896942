package docindex

import "errors"

// Sentinel errors for document ingestion and lookup.
var (
	ErrInvalidSession    = errors.New("invalid session id")
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmbedding         = errors.New("embedding service failed")
	ErrNotIndexed        = errors.New("session has no document index")
	ErrEmptyDocument     = errors.New("document contains no text")
)
