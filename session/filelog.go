package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type fileLog struct {
	root string
}

// NewFileLog creates a Log that persists each session as one JSON file
// (`<id>.json` under root): an array of {role, content, timestamp} objects,
// rewritten in full on every mutation. Writes go through a temp file and
// rename so a crash cannot leave a torn record.
func NewFileLog(root string) Log {
	return &fileLog{root: root}
}

func (l *fileLog) Load(ctx context.Context, sessionID string) ([]Turn, error) {
	path, err := l.path(sessionID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// First reference: initialize the backing record empty.
			if err := l.write(path, nil); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrLoadFailed, sessionID, err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, sessionID, err)
	}
	return turns, nil
}

func (l *fileLog) Append(ctx context.Context, sessionID string, turns ...Turn) error {
	if len(turns) == 0 {
		return nil
	}

	existing, err := l.Load(ctx, sessionID)
	if err != nil {
		return err
	}

	path, err := l.path(sessionID)
	if err != nil {
		return err
	}
	return l.write(path, append(existing, turns...))
}

func (l *fileLog) Clear(ctx context.Context, sessionID string) error {
	path, err := l.path(sessionID)
	if err != nil {
		return err
	}
	return l.write(path, nil)
}

func (l *fileLog) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrLoadFailed, err)
	}

	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// write persists the full turn sequence atomically. A nil slice is written
// as the empty array, matching the record contract.
func (l *fileLog) write(path string, turns []Turn) error {
	if err := os.MkdirAll(l.root, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	data, err := MarshalTurns(turns)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	tmp, err := os.CreateTemp(l.root, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrSaveFailed, err)
	}
	return nil
}

// MarshalTurns renders the persisted form of a turn sequence: an indented
// UTF-8 JSON array with HTML escaping off. Serialization is deterministic so
// a load/re-serialize cycle reproduces the record byte for byte.
func MarshalTurns(turns []Turn) ([]byte, error) {
	if turns == nil {
		turns = []Turn{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(turns); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (l *fileLog) path(sessionID string) (string, error) {
	if sessionID == "" || sessionID != filepath.Base(sessionID) || strings.HasPrefix(sessionID, ".") {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, sessionID)
	}
	return filepath.Join(l.root, sessionID+".json"), nil
}
