// Package watcher auto-ingests documents dropped into a watched directory.
// A file named <session-id>.<ext> is indexed for that session, so a drop
// directory can seed document QA without going through the upload endpoint.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/colloquy-ai/colloquy/docindex"
)

// debounce is how long a file must sit quiet before ingestion. Editors and
// copies produce bursts of writes; only the settled content matters.
const debounce = 500 * time.Millisecond

// Ingester indexes a dropped document for a session.
type Ingester interface {
	Ingest(ctx context.Context, sessionID, filename string, raw []byte) (*docindex.Index, error)
}

// Watcher monitors one directory for document drops.
type Watcher struct {
	dir        string
	ingester   Ingester
	logger     *slog.Logger
	extensions map[string]struct{}
}

// New creates a Watcher over dir. A nil logger discards.
func New(dir string, ingester Ingester, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{
		dir:      dir,
		ingester: ingester,
		logger:   logger,
		extensions: map[string]struct{}{
			".txt": {}, ".md": {}, ".markdown": {},
		},
	}
}

// Run watches the directory until ctx is canceled. Files already present at
// startup are ingested once before event processing begins.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fsw.Close()

	if err := fsw.Add(w.dir); err != nil {
		return err
	}

	w.ingestExisting(ctx)

	pending := make(map[string]*time.Timer)
	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !w.watched(event.Name) {
				continue
			}
			path := event.Name
			if t, exists := pending[path]; exists {
				t.Reset(debounce)
				continue
			}
			pending[path] = time.AfterFunc(debounce, func() {
				w.ingestFile(ctx, path)
			})
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", "dir", w.dir, "error", err)
		}
	}
}

func (w *Watcher) ingestExisting(ctx context.Context) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.logger.Warn("reading watch dir failed", "dir", w.dir, "error", err)
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.dir, entry.Name())
		if w.watched(path) {
			w.ingestFile(ctx, path)
		}
	}
}

func (w *Watcher) ingestFile(ctx context.Context, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("reading dropped file failed", "path", path, "error", err)
		return
	}

	filename := filepath.Base(path)
	sessionID := SessionID(filename)
	index, err := w.ingester.Ingest(ctx, sessionID, filename, raw)
	if err != nil {
		w.logger.Error("ingesting dropped file failed", "path", path, "session_id", sessionID, "error", err)
		return
	}
	w.logger.Info("dropped file ingested", "path", path, "session_id", sessionID, "chunks", len(index.Chunks))
}

func (w *Watcher) watched(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	_, ok := w.extensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// SessionID derives the target session from a dropped file's name: the stem
// with the extension removed.
func SessionID(filename string) string {
	return strings.TrimSuffix(filename, filepath.Ext(filename))
}
