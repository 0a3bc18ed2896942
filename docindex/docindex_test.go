package docindex_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/colloquy-ai/colloquy/docindex"
	"github.com/colloquy-ai/colloquy/store"
)

type stubEmbedder struct {
	err   error
	calls int
}

// vectors are derived from text length so similarity ordering is
// predictable in tests.
func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.calls++
	return []float32{float32(len(text)), 1}, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func TestSplitChunksOverlap(t *testing.T) {
	text := strings.Repeat("alpha beta gamma delta ", 20)

	chunks := docindex.SplitChunks(text, 50, 10)
	if len(chunks) < 2 {
		t.Fatalf("len = %d, want several chunks", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 50 {
			t.Errorf("chunk %d len = %d, want <= 50", i, len(c))
		}
	}
	// Overlap: the tail of chunk 0 reappears at the head of chunk 1.
	tail := chunks[0][len(chunks[0])-5:]
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Errorf("chunk 1 %q does not overlap tail %q", chunks[1], tail)
	}
}

func TestSplitChunksEmpty(t *testing.T) {
	if got := docindex.SplitChunks("   ", 100, 10); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}

func TestSplitChunksShortInput(t *testing.T) {
	got := docindex.SplitChunks("tiny", 100, 10)
	if len(got) != 1 || got[0] != "tiny" {
		t.Errorf("got %v", got)
	}
}

func TestIndexSearchRanksByCosine(t *testing.T) {
	idx := &docindex.Index{
		Chunks: []docindex.Chunk{
			{Content: "far", Vector: []float32{0, 1}},
			{Content: "near", Vector: []float32{1, 0.01}},
			{Content: "middle", Vector: []float32{1, 1}},
		},
	}

	matches := idx.Search([]float32{1, 0}, 2)
	if len(matches) != 2 {
		t.Fatalf("len = %d, want 2", len(matches))
	}
	if matches[0].Content != "near" || matches[1].Content != "middle" {
		t.Errorf("order = %q, %q", matches[0].Content, matches[1].Content)
	}
	if matches[0].Score <= matches[1].Score {
		t.Errorf("scores not descending: %v", matches)
	}
}

func TestIngestBuildsAndOverwritesIndex(t *testing.T) {
	blobs := store.NewFileStore(t.TempDir())
	emb := &stubEmbedder{}
	x := docindex.NewIndexer(blobs, emb, 50, 5)
	ctx := context.Background()

	if x.Exists(ctx, "s1") {
		t.Error("index exists before ingest")
	}

	first, err := x.Ingest(ctx, "s1", "notes.txt", []byte(strings.Repeat("hello world ", 20)))
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(first.Chunks) == 0 || first.Document != "notes.txt" {
		t.Errorf("index = %+v", first)
	}
	if !x.Exists(ctx, "s1") {
		t.Error("index missing after ingest")
	}

	second, err := x.Ingest(ctx, "s1", "other.md", []byte("completely new content"))
	if err != nil {
		t.Fatalf("re-ingest: %v", err)
	}
	if second.Document != "other.md" {
		t.Errorf("document = %q", second.Document)
	}

	loaded, err := x.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Document != "other.md" {
		t.Errorf("loaded %q, want the overwriting upload", loaded.Document)
	}
}

func TestIngestUnsupportedFormat(t *testing.T) {
	x := docindex.NewIndexer(store.NewFileStore(t.TempDir()), &stubEmbedder{}, 50, 5)

	_, err := x.Ingest(context.Background(), "s", "report.pdf", []byte("%PDF-1.4"))
	if !errors.Is(err, docindex.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestIngestInvalidUTF8(t *testing.T) {
	x := docindex.NewIndexer(store.NewFileStore(t.TempDir()), &stubEmbedder{}, 50, 5)

	_, err := x.Ingest(context.Background(), "s", "junk.txt", []byte{0xff, 0xfe, 0x00})
	if !errors.Is(err, docindex.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestIngestEmbeddingFailureLeavesPriorIndex(t *testing.T) {
	blobs := store.NewFileStore(t.TempDir())
	emb := &stubEmbedder{}
	x := docindex.NewIndexer(blobs, emb, 50, 5)
	ctx := context.Background()

	if _, err := x.Ingest(ctx, "s", "good.txt", []byte("original document text here")); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	emb.err = errors.New("service unavailable")
	_, err := x.Ingest(ctx, "s", "new.txt", []byte("replacement text"))
	if !errors.Is(err, docindex.ErrEmbedding) {
		t.Fatalf("err = %v, want ErrEmbedding", err)
	}

	loaded, err := x.Load(ctx, "s")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Document != "good.txt" {
		t.Errorf("prior index was disturbed: %q", loaded.Document)
	}
}

func TestLoadWithoutIndex(t *testing.T) {
	x := docindex.NewIndexer(store.NewFileStore(t.TempDir()), &stubEmbedder{}, 50, 5)

	_, err := x.Load(context.Background(), "nobody")
	if !errors.Is(err, docindex.ErrNotIndexed) {
		t.Errorf("err = %v, want ErrNotIndexed", err)
	}
}

func TestIngestRejectsTraversalSessionID(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "data")
	x := docindex.NewIndexer(store.NewFileStore(root), &stubEmbedder{}, 50, 5)
	ctx := context.Background()

	ids := []string{"", "../../outside/evil", "a/b", ".hidden", "..", "/abs"}
	for _, id := range ids {
		if _, err := x.Ingest(ctx, id, "doc.txt", []byte("some text")); !errors.Is(err, docindex.ErrInvalidSession) {
			t.Errorf("Ingest(%q) err = %v, want ErrInvalidSession", id, err)
		}
		if x.Exists(ctx, id) {
			t.Errorf("Exists(%q) = true", id)
		}
		if _, err := x.Load(ctx, id); !errors.Is(err, docindex.ErrInvalidSession) {
			t.Errorf("Load(%q) err = %v, want ErrInvalidSession", id, err)
		}
	}

	// Nothing may have been written outside the data root.
	if _, err := os.Stat(filepath.Join(base, "outside")); !os.IsNotExist(err) {
		t.Errorf("index escaped the data root: %v", err)
	}
}

func TestSplitChunksKeepsRuneBoundaries(t *testing.T) {
	// No spaces anywhere, every rune two bytes: a byte-offset cut would
	// split a rune mid-sequence.
	text := strings.Repeat("é", 300)

	chunks := docindex.SplitChunks(text, 5, 2)
	if len(chunks) < 2 {
		t.Fatalf("len = %d, want several chunks", len(chunks))
	}
	for i, c := range chunks {
		if !utf8.ValidString(c) {
			t.Errorf("chunk %d is not valid UTF-8: %q", i, c)
		}
	}
	if chunks[0] != "éé" {
		t.Errorf("chunk 0 = %q, want the cut backed up to a rune boundary", chunks[0])
	}
}
