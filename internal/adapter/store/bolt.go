package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.etcd.io/bbolt"

	"docchat/internal/port"
)

var (
	bucketEntries = []byte("entries")
	bucketMeta    = []byte("meta")
	keyDimension  = []byte("dimension")
	keyMetric     = []byte("metric")
)

// The distance metric is chosen once per corpus and recorded in the meta
// bucket; mixing metrics across a corpus is not allowed.
const metricCosine = "cosine"

// BoltVectorStore persists index entries in BoltDB and performs brute-force
// cosine search over an in-memory copy of the vectors. Opening the database
// takes an exclusive file lock, which doubles as the single-writer guard
// for ingestion runs.
type BoltVectorStore struct {
	db        *bbolt.DB
	dimension int

	mu      sync.RWMutex
	entries map[string]cachedEntry
}

type cachedEntry struct {
	vector []float32
	text   string
	source string
	page   int
}

type storedEntry struct {
	Vector []float32 `json:"v"`
	Text   string    `json:"t"`
	Source string    `json:"s"`
	Page   int       `json:"p"`
}

// Open opens (or creates) the vector store at path for vectors of the given
// dimension. A dimension mismatch against a previously populated store is an
// error: the index must be reset and re-ingested.
func Open(path string, dimension int) (*BoltVectorStore, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("invalid embedding dimension %d", dimension)
	}

	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	s := &BoltVectorStore{
		db:        db,
		dimension: dimension,
		entries:   make(map[string]cachedEntry),
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}

		if stored := meta.Get(keyDimension); stored != nil {
			var dim int
			if err := json.Unmarshal(stored, &dim); err == nil && dim != dimension {
				return fmt.Errorf("embedding dimension changed from %d to %d: reset the index and re-ingest", dim, dimension)
			}
		}
		if stored := meta.Get(keyMetric); stored != nil && string(stored) != metricCosine {
			return fmt.Errorf("index was built with metric %q, expected %q", stored, metricCosine)
		}

		dimData, err := json.Marshal(dimension)
		if err != nil {
			return err
		}
		if err := meta.Put(keyDimension, dimData); err != nil {
			return err
		}
		return meta.Put(keyMetric, []byte(metricCosine))
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := s.loadEntries(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load index entries: %w", err)
	}

	return s, nil
}

// OpenForReset opens the store with whatever dimension it was built with,
// skipping the dimension guard. This is the open path for clearing the
// index after the embedding model changed; Query and Upsert still go
// through Open.
func OpenForReset(path string) (*BoltVectorStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector store: %w", err)
	}

	s := &BoltVectorStore{
		db:      db,
		entries: make(map[string]cachedEntry),
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketEntries); err != nil {
			return err
		}
		meta, err := tx.CreateBucketIfNotExists(bucketMeta)
		if err != nil {
			return err
		}
		if stored := meta.Get(keyDimension); stored != nil {
			var dim int
			if err := json.Unmarshal(stored, &dim); err == nil {
				s.dimension = dim
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := s.loadEntries(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load index entries: %w", err)
	}

	return s, nil
}

func (s *BoltVectorStore) loadEntries() error {
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		return b.ForEach(func(k, v []byte) error {
			var stored storedEntry
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt entry %s: %w", k, err)
			}
			s.entries[string(k)] = cachedEntry{
				vector: stored.Vector,
				text:   stored.Text,
				source: stored.Source,
				page:   stored.Page,
			}
			return nil
		})
	})
}

// Upsert writes the whole batch in a single transaction. The in-memory copy
// is refreshed only after the transaction commits, so a failed batch leaves
// both the file and the cache at their pre-batch state.
func (s *BoltVectorStore) Upsert(entries []port.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		if len(e.Vector) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", e.ChunkID, s.dimension, len(e.Vector))
		}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketEntries)
		for _, e := range entries {
			data, err := json.Marshal(storedEntry{
				Vector: e.Vector,
				Text:   e.Text,
				Source: e.Source,
				Page:   e.Page,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.ChunkID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, e := range entries {
		s.entries[e.ChunkID] = cachedEntry{
			vector: e.Vector,
			text:   e.Text,
			source: e.Source,
			page:   e.Page,
		}
	}
	return nil
}

func (s *BoltVectorStore) ExistingIDs() (map[string]struct{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make(map[string]struct{}, len(s.entries))
	for id := range s.entries {
		ids[id] = struct{}{}
	}
	return ids, nil
}

func (s *BoltVectorStore) Query(vector []float32, k int) ([]port.QueryResult, error) {
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
			Text:    e.text,
			Source:  e.source,
			Page:    e.page,
			Score:   cosineSimilarity(vector, e.vector),
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

func (s *BoltVectorStore) ResetAll() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	destroyed := len(s.entries)

	// Dropping the pinned dimension lets the next Open re-ingest with a
	// different embedding model.
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketEntries); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(bucketEntries); err != nil {
			return err
		}
		if meta := tx.Bucket(bucketMeta); meta != nil {
			return meta.Delete(keyDimension)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.entries = make(map[string]cachedEntry)
	return destroyed, nil
}

func (s *BoltVectorStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *BoltVectorStore) Close() error {
	return s.db.Close()
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
