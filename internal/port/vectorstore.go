package port

// IndexEntry pairs a chunk ID with its embedding, text, and provenance.
// Entries are replaced whole on upsert, never partially updated.
type IndexEntry struct {
	ChunkID string
	Vector  []float32
	Text    string
	Source  string
	Page    int
}

// QueryResult is one nearest neighbour from a similarity search.
type QueryResult struct {
	ChunkID string
	Text    string
	Source  string
	Page    int
	Score   float64 // cosine similarity, higher is better
}

// VectorStore is the persisted embedding index.
type VectorStore interface {
	// Upsert adds or replaces entries keyed by chunk ID. The batch is
	// applied atomically: either every entry lands or none does.
	Upsert(entries []IndexEntry) error

	// ExistingIDs reports the chunk IDs of all prior successful upserts.
	ExistingIDs() (map[string]struct{}, error)

	// Query returns the k entries nearest to the vector, best first.
	Query(vector []float32, k int) ([]QueryResult, error)

	// ResetAll irreversibly drops every entry and reports how many were
	// destroyed. It is never implied by Upsert.
	ResetAll() (int, error)

	// Count returns the number of entries in the store.
	Count() (int, error)

	Close() error
}
