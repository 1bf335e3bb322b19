package usecase

import (
	"fmt"

	"docchat/internal/domain"
	"docchat/internal/port"
)

// Differ partitions freshly produced chunks against the persisted index:
// chunks whose IDs are absent need embedding and insertion, the rest are
// skipped. This is what makes re-ingestion idempotent.
//
// Change detection is provenance-based: a chunk whose (source, page, index)
// triple is already indexed is skipped even if its text has drifted. Folding
// a content hash into the comparison key is a known extension point, left
// out deliberately.
type Differ struct {
	store port.VectorStore
}

func NewDiffer(store port.VectorStore) *Differ {
	return &Differ{store: store}
}

func (d *Differ) Diff(chunks []domain.Chunk) (fresh []domain.Chunk, skipped int, err error) {
	existing, err := d.store.ExistingIDs()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: listing existing IDs: %v", domain.ErrStore, err)
	}

	for _, c := range chunks {
		if _, ok := existing[c.ID]; ok {
			skipped++
			continue
		}
		fresh = append(fresh, c)
	}
	return fresh, skipped, nil
}
