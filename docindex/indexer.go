package docindex

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/colloquy-ai/colloquy/store"
)

// supported upload extensions and their treatment. Plain-text formats only;
// binary formats surface ErrUnsupportedFormat to the caller.
var supportedExtensions = map[string]struct{}{
	".txt":      {},
	".md":       {},
	".markdown": {},
}

// Indexer builds and overwrites per-session document indexes. The raw
// upload and the index blob live in the same store under distinct prefixes.
type Indexer struct {
	store    store.Store
	embedder Embedder

	chunkSize    int
	chunkOverlap int
}

// NewIndexer creates an Indexer over the given blob store and embedding
// collaborator.
func NewIndexer(blobs store.Store, embedder Embedder, chunkSize, chunkOverlap int) *Indexer {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	if chunkOverlap < 0 {
		chunkOverlap = 50
	}
	return &Indexer{
		store:        blobs,
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest persists the raw upload, chunks and embeds its text, and
// overwrites the session's index. A failure at any stage leaves the
// session's previous index (if any) in place.
func (x *Indexer) Ingest(ctx context.Context, sessionID, filename string, raw []byte) (*Index, error) {
	if !validSessionID(sessionID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}

	text, err := extractText(filename, raw)
	if err != nil {
		return nil, err
	}

	chunks := SplitChunks(text, x.chunkSize, x.chunkOverlap)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, filename)
	}

	vectors, err := x.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	idx := &Index{
		SessionID: sessionID,
		Document:  path.Base(filename),
		CreatedAt: time.Now().UTC(),
		Chunks:    make([]Chunk, len(chunks)),
	}
	for i, content := range chunks {
		idx.Chunks[i] = Chunk{Content: content, Vector: vectors[i]}
	}

	blob, err := json.Marshal(idx)
	if err != nil {
		return nil, fmt.Errorf("encoding index: %w", err)
	}

	entries := []store.Entry{
		{Key: uploadKey(sessionID, filename), Value: raw},
		{Key: indexKey(sessionID), Value: blob},
	}
	if err := x.store.Save(ctx, entries...); err != nil {
		return nil, fmt.Errorf("persisting index: %w", err)
	}

	return idx, nil
}

// Exists reports whether the session has an index. Absence is the normal
// "no document" state, never an error.
func (x *Indexer) Exists(ctx context.Context, sessionID string) bool {
	return validSessionID(sessionID) && x.store.Exists(ctx, indexKey(sessionID))
}

// Load reads the session's index. Returns ErrNotIndexed when the session
// has no document.
func (x *Indexer) Load(ctx context.Context, sessionID string) (*Index, error) {
	if !validSessionID(sessionID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSession, sessionID)
	}

	entries, err := x.store.Load(ctx, indexKey(sessionID))
	if err != nil {
		if x.store.Exists(ctx, indexKey(sessionID)) {
			return nil, fmt.Errorf("loading index: %w", err)
		}
		return nil, fmt.Errorf("%w: %s", ErrNotIndexed, sessionID)
	}

	var idx Index
	if err := json.Unmarshal(entries[0].Value, &idx); err != nil {
		return nil, fmt.Errorf("decoding index for %s: %w", sessionID, err)
	}
	return &idx, nil
}

// extractText pulls the text out of an upload. Only plain-text formats are
// supported; anything else, including text that is not valid UTF-8, is an
// ingestion fault.
func extractText(filename string, raw []byte) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	if _, ok := supportedExtensions[ext]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", ErrUnsupportedFormat, filename)
	}
	return string(raw), nil
}

// validSessionID mirrors the turn log's id rules: a session id is a single
// path element with no leading dot, so it can never steer a store key
// outside its prefix.
func validSessionID(id string) bool {
	return id != "" && id == path.Base(id) && !strings.HasPrefix(id, ".")
}

func indexKey(sessionID string) string {
	return "indexes/" + sessionID + ".json"
}

func uploadKey(sessionID, filename string) string {
	return "uploads/" + sessionID + "/" + path.Base(filename)
}
