package usecase

import (
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"docchat/internal/domain"
	"docchat/internal/port"
)

// IngestUseCase runs the full ingestion pipeline: load pages, chunk them,
// diff against the index, embed what is new, and upsert the result as one
// atomic batch. Re-running over an unchanged corpus produces zero upserts.
type IngestUseCase struct {
	loader      port.DocumentLoader
	chunker     port.Chunker
	embedder    port.Embedder
	store       port.VectorStore
	differ      *Differ
	batchSize   int
	concurrency int
}

func NewIngestUseCase(
	loader port.DocumentLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	store port.VectorStore,
	batchSize, concurrency int,
) *IngestUseCase {
	if batchSize <= 0 {
		batchSize = 64
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &IngestUseCase{
		loader:      loader,
		chunker:     chunker,
		embedder:    embedder,
		store:       store,
		differ:      NewDiffer(store),
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

// IngestResult summarizes one ingestion run.
type IngestResult struct {
	DocumentsLoaded int
	PagesLoaded     int
	ChunksAdded     int
	ChunksSkipped   int
	Failures        []string
}

// ProgressFunc reports embedding progress: chunks embedded so far and total.
type ProgressFunc func(done, total int)

func (u *IngestUseCase) Ingest(root string, progress ProgressFunc) (*IngestResult, error) {
	pages, loadFailures, err := u.loader.Load(root)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{PagesLoaded: len(pages)}
	for _, f := range loadFailures {
		result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", f.Source, f.Err))
	}

	sources := make(map[string]struct{})
	var chunks []domain.Chunk
	for _, page := range pages {
		sources[page.Source] = struct{}{}
		cs, err := u.chunker.Split(page)
		if err != nil {
			// Malformed page: skip it, keep the run going.
			result.Failures = append(result.Failures, fmt.Sprintf("%s page %d: %v", page.Source, page.Page, err))
			continue
		}
		chunks = append(chunks, cs...)
	}
	result.DocumentsLoaded = len(sources)

	fresh, skipped, err := u.differ.Diff(chunks)
	if err != nil {
		return nil, err
	}
	result.ChunksSkipped = skipped

	if len(fresh) == 0 {
		return result, nil
	}

	entries, err := u.embedChunks(fresh, progress)
	if err != nil {
		return nil, err
	}

	// One atomic upsert per run: the index only ever moves from the
	// pre-run state to the full post-run state.
	if err := u.store.Upsert(entries); err != nil {
		return nil, fmt.Errorf("%w: upserting %d entries: %v", domain.ErrStore, len(entries), err)
	}
	result.ChunksAdded = len(entries)

	return result, nil
}

// embedChunks embeds batches concurrently, bounded by the configured limit.
// Chunk embedding has no ordering dependency, so batches are independent;
// any failure aborts the whole run before the store is touched.
func (u *IngestUseCase) embedChunks(chunks []domain.Chunk, progress ProgressFunc) ([]port.IndexEntry, error) {
	entries := make([]port.IndexEntry, len(chunks))

	var mu sync.Mutex
	done := 0

	var g errgroup.Group
	g.SetLimit(u.concurrency)

	for start := 0; start < len(chunks); start += u.batchSize {
		end := start + u.batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[start:end]
		offset := start

		g.Go(func() error {
			texts := make([]string, len(batch))
			for i, c := range batch {
				texts[i] = c.Text
			}

			vectors, err := u.embedder.Embed(texts)
			if err != nil {
				return fmt.Errorf("%w: embedding batch: %v", domain.ErrProvider, err)
			}
			if len(vectors) != len(texts) {
				return fmt.Errorf("%w: got %d vectors for %d texts", domain.ErrProvider, len(vectors), len(texts))
			}

			for i, c := range batch {
				entries[offset+i] = port.IndexEntry{
					ChunkID: c.ID,
					Vector:  vectors[i],
					Text:    c.Text,
					Source:  c.Source,
					Page:    c.Page,
				}
			}

			if progress != nil {
				mu.Lock()
				done += len(batch)
				progress(done, len(chunks))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
