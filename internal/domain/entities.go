package domain

import (
	"fmt"
	"time"
)

// PageUnit is one page of one source document. The Source (document path
// relative to the corpus root) is what chunk IDs and citations carry.
// Produced by the loader, consumed by the chunker, never persisted.
type PageUnit struct {
	Source string
	Page   int // 1-based
	Text   string
}

// Chunk is the atomic retrievable unit.
type Chunk struct {
	ID          string
	Source      string
	Page        int
	IndexInPage int // 0-based ordinal within the page after splitting
	Text        string
}

// ChunkID derives the stable identifier for a chunk from its provenance.
// Identical (source, page, index) triples always yield the same ID, across
// process restarts and machines.
func ChunkID(source string, page, indexInPage int) string {
	return fmt.Sprintf("%s:%d:%d", source, page, indexInPage)
}

// ContextChunk is one retrieved chunk with its citation attached, in the
// structured form handed to the chat capability.
type ContextChunk struct {
	Text   string  `json:"text"`
	Source string  `json:"source"`
	Page   int     `json:"page"`
	Score  float64 `json:"score"`
}

// Citation renders the source reference for display.
func (c ContextChunk) Citation() string {
	return fmt.Sprintf("%s p.%d", c.Source, c.Page)
}

// ChatTurn is one (question, answer) exchange in the history log.
type ChatTurn struct {
	Question  string
	Answer    string
	Timestamp time.Time
}

// LoadFailure reports a single document that could not be loaded.
type LoadFailure struct {
	Source string
	Err    error
}
