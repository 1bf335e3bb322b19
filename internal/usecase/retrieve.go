package usecase

import (
	"fmt"

	"docchat/internal/domain"
	"docchat/internal/port"
)

// RetrieveUseCase turns a natural-language question into a ranked,
// deduplicated context set with citations.
type RetrieveUseCase struct {
	embedder port.Embedder
	store    port.VectorStore
	minScore float64 // similarity floor, 0 disables filtering
	budget   int     // max total characters in the assembled context, 0 = unlimited
}

func NewRetrieveUseCase(embedder port.Embedder, store port.VectorStore, minScore float64, budget int) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder: embedder,
		store:    store,
		minScore: minScore,
		budget:   budget,
	}
}

func (u *RetrieveUseCase) Retrieve(question string, k int) ([]domain.ContextChunk, error) {
	vectors, err := u.embedder.Embed([]string{question})
	if err != nil {
		return nil, fmt.Errorf("%w: embedding question: %v", domain.ErrProvider, err)
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: embedding returned no vector", domain.ErrProvider)
	}

	results, err := u.store.Query(vectors[0], k)
	if err != nil {
		return nil, fmt.Errorf("%w: similarity search: %v", domain.ErrStore, err)
	}

	if u.minScore > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Score >= u.minScore {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	return u.assemble(results), nil
}

// assemble enforces the context length budget. When the budget is exceeded,
// lower-scoring chunks from pages that already contributed one are dropped
// first; if that is not enough, the lowest-scoring chunks go next. The
// survivors keep their similarity ranking order.
func (u *RetrieveUseCase) assemble(results []port.QueryResult) []domain.ContextChunk {
	if len(results) == 0 {
		return nil
	}

	keep := make([]bool, len(results))
	total := 0
	for i, r := range results {
		keep[i] = true
		total += len(r.Text)
	}

	if u.budget > 0 && total > u.budget {
		type pageKey struct {
			source string
			page   int
		}

		// Results arrive best-first, so the first chunk seen per page
		// is the one worth keeping.
		best := make(map[pageKey]int)
		for i, r := range results {
			key := pageKey{r.Source, r.Page}
			if _, ok := best[key]; !ok {
				best[key] = i
			}
		}

		for i := len(results) - 1; i >= 0 && total > u.budget; i-- {
			key := pageKey{results[i].Source, results[i].Page}
			if best[key] != i {
				keep[i] = false
				total -= len(results[i].Text)
			}
		}

		for i := len(results) - 1; i > 0 && total > u.budget; i-- {
			if keep[i] {
				keep[i] = false
				total -= len(results[i].Text)
			}
		}
	}

	context := make([]domain.ContextChunk, 0, len(results))
	for i, r := range results {
		if !keep[i] {
			continue
		}
		context = append(context, domain.ContextChunk{
			Text:   r.Text,
			Source: r.Source,
			Page:   r.Page,
			Score:  r.Score,
		})
	}
	return context
}
