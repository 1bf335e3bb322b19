package usecase

import (
	"errors"
	"strings"
	"testing"

	"docchat/internal/adapter/chunker"
	"docchat/internal/adapter/embedding"
	"docchat/internal/adapter/memstore"
	"docchat/internal/domain"
	"docchat/internal/port"
)

// stubLoader serves a fixed set of pages, standing in for the PDF loader.
type stubLoader struct {
	pages    []domain.PageUnit
	failures []domain.LoadFailure
}

func (l *stubLoader) Load(root string) ([]domain.PageUnit, []domain.LoadFailure, error) {
	return l.pages, l.failures, nil
}

// faultStore wraps a VectorStore and fails the nth Upsert call.
type faultStore struct {
	port.VectorStore
	failOn int
	calls  int
}

func (s *faultStore) Upsert(entries []port.IndexEntry) error {
	s.calls++
	if s.calls == s.failOn {
		return errors.New("injected write failure")
	}
	return s.VectorStore.Upsert(entries)
}

// failingEmbedder simulates an unreachable embedding provider.
type failingEmbedder struct{}

func (failingEmbedder) Embed(texts []string) ([][]float32, error) {
	return nil, errors.New("connection refused")
}
func (failingEmbedder) Dimension() int    { return 8 }
func (failingEmbedder) ModelName() string { return "failing" }

func newTestIngest(t *testing.T, loader port.DocumentLoader, store port.VectorStore, size, overlap int) *IngestUseCase {
	t.Helper()
	chk, err := chunker.NewPageChunker(size, overlap)
	if err != nil {
		t.Fatal(err)
	}
	return NewIngestUseCase(loader, chk, embedding.NewMockEmbedder(8), store, 2, 2)
}

// twoPageDoc builds a small fixture corpus: a 2-page doc.pdf that splits
// into 3 chunks on page 1 and 2 chunks on page 2 at size 500 / overlap 50.
func twoPageDoc() *stubLoader {
	return &stubLoader{pages: []domain.PageUnit{
		{Source: "doc.pdf", Page: 1, Text: strings.Repeat("a", 1200)},
		{Source: "doc.pdf", Page: 2, Text: strings.Repeat("b", 700)},
	}}
}

func TestIngestExampleScenario(t *testing.T) {
	store := memstore.New(8)
	uc := newTestIngest(t, twoPageDoc(), store, 500, 50)

	result, err := uc.Ingest("corpus", nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.DocumentsLoaded != 1 {
		t.Errorf("expected 1 document, got %d", result.DocumentsLoaded)
	}
	if result.ChunksAdded != 5 {
		t.Errorf("expected 5 chunks added, got %d", result.ChunksAdded)
	}
	if result.ChunksSkipped != 0 {
		t.Errorf("expected 0 chunks skipped, got %d", result.ChunksSkipped)
	}

	ids, err := store.ExistingIDs()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"doc.pdf:1:0", "doc.pdf:1:1", "doc.pdf:1:2", "doc.pdf:2:0", "doc.pdf:2:1"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d IDs, got %d", len(want), len(ids))
	}
	for _, id := range want {
		if _, ok := ids[id]; !ok {
			t.Errorf("missing expected ID %s", id)
		}
	}
}

func TestIngestIdempotent(t *testing.T) {
	store := memstore.New(8)
	loader := twoPageDoc()

	first := newTestIngest(t, loader, store, 500, 50)
	if _, err := first.Ingest("corpus", nil); err != nil {
		t.Fatal(err)
	}
	before, _ := store.ExistingIDs()

	second := newTestIngest(t, loader, store, 500, 50)
	result, err := second.Ingest("corpus", nil)
	if err != nil {
		t.Fatal(err)
	}

	if result.ChunksAdded != 0 {
		t.Errorf("expected 0 upserts on unchanged corpus, got %d", result.ChunksAdded)
	}
	if result.ChunksSkipped != 5 {
		t.Errorf("expected 5 skipped, got %d", result.ChunksSkipped)
	}

	after, _ := store.ExistingIDs()
	if len(after) != len(before) {
		t.Errorf("ID set changed size: %d -> %d", len(before), len(after))
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			t.Errorf("ID %s disappeared after re-ingestion", id)
		}
	}
}

func TestIngestNewDocumentOnly(t *testing.T) {
	store := memstore.New(8)

	first := newTestIngest(t, twoPageDoc(), store, 500, 50)
	if _, err := first.Ingest("corpus", nil); err != nil {
		t.Fatal(err)
	}

	grown := &stubLoader{pages: append(twoPageDoc().pages,
		domain.PageUnit{Source: "extra.pdf", Page: 1, Text: strings.Repeat("c", 300)},
	)}
	second := newTestIngest(t, grown, store, 500, 50)

	result, err := second.Ingest("corpus", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.ChunksAdded != 1 {
		t.Errorf("expected only the new document's chunk, got %d added", result.ChunksAdded)
	}
	if result.ChunksSkipped != 5 {
		t.Errorf("expected 5 skipped, got %d", result.ChunksSkipped)
	}

	ids, _ := store.ExistingIDs()
	if _, ok := ids["extra.pdf:1:0"]; !ok {
		t.Error("missing chunk from the new document")
	}
}

func TestIngestAtomicityOnStoreFailure(t *testing.T) {
	inner := memstore.New(8)
	store := &faultStore{VectorStore: inner, failOn: 1}
	uc := newTestIngest(t, twoPageDoc(), store, 500, 50)

	if _, err := uc.Ingest("corpus", nil); err == nil {
		t.Fatal("expected store failure to surface")
	} else if !errors.Is(err, domain.ErrStore) {
		t.Errorf("expected ErrStore, got %v", err)
	}

	ids, _ := inner.ExistingIDs()
	if len(ids) != 0 {
		t.Errorf("expected pre-batch state (empty), got %d entries", len(ids))
	}

	// A retry of the whole run must land the full post-batch state.
	retry := newTestIngest(t, twoPageDoc(), store, 500, 50)
	if _, err := retry.Ingest("corpus", nil); err != nil {
		t.Fatal(err)
	}
	ids, _ = inner.ExistingIDs()
	if len(ids) != 5 {
		t.Errorf("expected 5 entries after retry, got %d", len(ids))
	}
}

func TestIngestProviderFailureLeavesStoreUntouched(t *testing.T) {
	store := memstore.New(8)
	chk, err := chunker.NewPageChunker(500, 50)
	if err != nil {
		t.Fatal(err)
	}
	uc := NewIngestUseCase(twoPageDoc(), chk, failingEmbedder{}, store, 2, 2)

	_, err = uc.Ingest("corpus", nil)
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected ErrProvider, got %v", err)
	}

	ids, _ := store.ExistingIDs()
	if len(ids) != 0 {
		t.Errorf("expected no entries after provider failure, got %d", len(ids))
	}
}

func TestIngestReportsLoadFailures(t *testing.T) {
	loader := &stubLoader{
		pages: []domain.PageUnit{{Source: "good.pdf", Page: 1, Text: "short page"}},
		failures: []domain.LoadFailure{
			{Source: "broken.pdf", Err: domain.ErrLoad},
		},
	}
	store := memstore.New(8)
	uc := newTestIngest(t, loader, store, 500, 50)

	result, err := uc.Ingest("corpus", nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.ChunksAdded != 1 {
		t.Errorf("expected the good document indexed, got %d chunks", result.ChunksAdded)
	}
	if len(result.Failures) != 1 || !strings.Contains(result.Failures[0], "broken.pdf") {
		t.Errorf("expected a failure entry for broken.pdf, got %v", result.Failures)
	}
}

func TestIngestProgressReported(t *testing.T) {
	store := memstore.New(8)
	uc := newTestIngest(t, twoPageDoc(), store, 500, 50)

	var lastDone, lastTotal int
	_, err := uc.Ingest("corpus", func(done, total int) {
		lastDone, lastTotal = done, total
	})
	if err != nil {
		t.Fatal(err)
	}
	if lastDone != 5 || lastTotal != 5 {
		t.Errorf("expected final progress 5/5, got %d/%d", lastDone, lastTotal)
	}
}

func TestIngestDeterministicIDs(t *testing.T) {
	runIDs := func() map[string]struct{} {
		store := memstore.New(8)
		uc := newTestIngest(t, twoPageDoc(), store, 500, 50)
		if _, err := uc.Ingest("corpus", nil); err != nil {
			t.Fatal(err)
		}
		ids, _ := store.ExistingIDs()
		return ids
	}

	first := runIDs()
	second := runIDs()
	if len(first) != len(second) {
		t.Fatalf("runs produced different ID counts: %d vs %d", len(first), len(second))
	}
	for id := range first {
		if _, ok := second[id]; !ok {
			t.Errorf("ID %s missing from second run", id)
		}
	}
}
