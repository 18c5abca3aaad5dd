package rag

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// Match pairs a retrieved chunk with its similarity score (higher is better).
type Match struct {
	Chunk Chunk
	Score float64
}

// Index holds one namespace's chunks and their embedding vectors in parallel
// slices. Queries return chunks only from this namespace.
type Index struct {
	Namespace string    `json:"namespace"`
	Dim       int       `json:"dim"`
	Chunks    []Chunk   `json:"chunks"`
	Vectors   [][]float32 `json:"vectors"`
}

func NewIndex(namespace string, chunks []Chunk, vectors [][]float32) (*Index, error) {
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunks and vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}
	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
		for i, v := range vectors {
			if len(v) != dim {
				return nil, fmt.Errorf("vector %d dimension mismatch: %d vs %d", i, len(v), dim)
			}
		}
	}
	return &Index{Namespace: namespace, Dim: dim, Chunks: chunks, Vectors: vectors}, nil
}

func (ix *Index) Len() int { return len(ix.Chunks) }

// Search ranks all chunks by cosine similarity, best first, returning at most
// k matches. An empty index returns an empty result, not an error.
func (ix *Index) Search(query []float32, k int) []Match {
	if k <= 0 || len(ix.Chunks) == 0 {
		return []Match{}
	}
	matches := make([]Match, 0, len(ix.Chunks))
	for i, v := range ix.Vectors {
		matches = append(matches, Match{
			Chunk: ix.Chunks[i],
			Score: cosineSimilarity(v, query),
		})
	}
	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].Score > matches[b].Score
	})
	if k > len(matches) {
		k = len(matches)
	}
	return matches[:k]
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

// Save persists the index as a single JSON file, creating parent directories.
func (ix *Index) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	data, err := json.Marshal(ix)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// LoadIndex reads a persisted index. The fast path at startup: no re-embedding.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	var ix Index
	if err := json.Unmarshal(data, &ix); err != nil {
		return nil, fmt.Errorf("decode index: %w", err)
	}
	if len(ix.Chunks) != len(ix.Vectors) {
		return nil, fmt.Errorf("corrupt index: %d chunks vs %d vectors", len(ix.Chunks), len(ix.Vectors))
	}
	return &ix, nil
}
