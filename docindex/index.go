package docindex

import (
	"math"
	"sort"
	"time"
)

// Chunk is one piece of the indexed document with its retrieval vector.
type Chunk struct {
	Content string    `json:"content"`
	Vector  []float32 `json:"vector"`
}

// Index is a session's retrieval structure over one uploaded document.
// A session has at most one Index; a later ingestion overwrites it whole.
type Index struct {
	SessionID string    `json:"session_id"`
	Document  string    `json:"document"`
	CreatedAt time.Time `json:"created_at"`
	Chunks    []Chunk   `json:"chunks"`
}

// Match is a chunk ranked against a query vector.
type Match struct {
	Content string
	Score   float64
}

// Search returns the topK chunks most similar to the query vector, best
// first.
func (idx *Index) Search(query []float32, topK int) []Match {
	if topK <= 0 {
		topK = 3
	}

	matches := make([]Match, 0, len(idx.Chunks))
	for _, c := range idx.Chunks {
		matches = append(matches, Match{
			Content: c.Content,
			Score:   cosineSimilarity(query, c.Vector),
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
