package port

import "docchat/internal/domain"

// Chunker splits one page into retrievable chunks with stable IDs.
// Splitting is deterministic: the same page always yields the same chunks.
type Chunker interface {
	Split(page domain.PageUnit) ([]domain.Chunk, error)
}
