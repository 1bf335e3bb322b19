package chunker

import (
	"fmt"
	"strings"

	"docchat/internal/domain"
)

// PageChunker splits page text into fixed-size overlapping windows.
// Consecutive chunks share exactly `overlap` characters, so concatenating
// the first chunk with the non-overlapping tail of each subsequent chunk
// reconstructs the page text.
type PageChunker struct {
	size    int // window size in characters (runes)
	overlap int
}

func NewPageChunker(size, overlap int) (*PageChunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", size)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("overlap must satisfy 0 <= overlap < size, got overlap=%d size=%d", overlap, size)
	}
	return &PageChunker{size: size, overlap: overlap}, nil
}

func (c *PageChunker) Split(page domain.PageUnit) ([]domain.Chunk, error) {
	if page.Page < 1 {
		return nil, fmt.Errorf("%w: %s has invalid page number %d", domain.ErrChunking, page.Source, page.Page)
	}
	if strings.TrimSpace(page.Text) == "" {
		return nil, nil
	}

	runes := []rune(page.Text)
	step := c.size - c.overlap

	var chunks []domain.Chunk
	for start, seq := 0, 0; start < len(runes); start, seq = start+step, seq+1 {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, domain.Chunk{
			ID:          domain.ChunkID(page.Source, page.Page, seq),
			Source:      page.Source,
			Page:        page.Page,
			IndexInPage: seq,
			Text:        string(runes[start:end]),
		})
		if end == len(runes) {
			break
		}
	}

	return chunks, nil
}
