package memstore

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"docchat/internal/port"
)

// MemoryVectorStore is an ephemeral VectorStore used in tests and dry runs.
// Batches are validated in full before any entry is applied, matching the
// atomicity contract of the persistent store.
type MemoryVectorStore struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]port.IndexEntry
}

func New(dimension int) *MemoryVectorStore {
	return &MemoryVectorStore{
		dimension: dimension,
		entries:   make(map[string]port.IndexEntry),
	}
}

func (s *MemoryVectorStore) Upsert(entries []port.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", e.ChunkID, s.dimension, len(e.Vector))
		}
	}
	for _, e := range entries {
		s.entries[e.ChunkID] = e
	}
	return nil
}

func (s *MemoryVectorStore) ExistingIDs() (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{}, len(s.entries))
	for id := range s.entries {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *MemoryVectorStore) Query(vector []float32, k int) ([]port.QueryResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector))
	}
	if k <= 0 || len(s.entries) == 0 {
		return nil, nil
	}

	results := make([]port.QueryResult, 0, len(s.entries))
	for id, e := range s.entries {
		results = append(results, port.QueryResult{
			ChunkID: id,
			Text:    e.Text,
			Source:  e.Source,
			Page:    e.Page,
			Score:   cosineSimilarity(vector, e.Vector),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ChunkID < results[j].ChunkID
	})

	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

func (s *MemoryVectorStore) ResetAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	destroyed := len(s.entries)
	s.entries = make(map[string]port.IndexEntry)
	return destroyed, nil
}

func (s *MemoryVectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *MemoryVectorStore) Close() error {
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
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
