package chunker

import (
	"reflect"
	"strings"
	"testing"

	"docchat/internal/domain"
)

func page(text string) domain.PageUnit {
	return domain.PageUnit{Source: "doc.pdf", Page: 1, Text: text}
}

func TestSplitShortPageYieldsOneChunk(t *testing.T) {
	c, err := NewPageChunker(100, 10)
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := c.Split(page("a short page"))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "a short page" {
		t.Errorf("expected whole page as chunk text, got %q", chunks[0].Text)
	}
	if chunks[0].ID != "doc.pdf:1:0" {
		t.Errorf("expected ID doc.pdf:1:0, got %s", chunks[0].ID)
	}
}

func TestSplitExactOverlap(t *testing.T) {
	c, err := NewPageChunker(10, 4)
	if err != nil {
		t.Fatal(err)
	}

	text := "abcdefghijklmnopqrstuvwxyz"
	chunks, err := c.Split(page(text))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		curr := []rune(chunks[i].Text)
		tail := string(prev[len(prev)-4:])
		head := string(curr[:4])
		if tail != head {
			t.Errorf("chunks %d/%d: expected overlap %q, got head %q", i-1, i, tail, head)
		}
	}
}

func TestSplitRoundTrip(t *testing.T) {
	c, err := NewPageChunker(10, 4)
	if err != nil {
		t.Fatal(err)
	}

	text := "The quick brown fox jumps over the lazy dog near the river bank."
	chunks, err := c.Split(page(text))
	if err != nil {
		t.Fatal(err)
	}

	var sb strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch.Text)
		if i == 0 {
			sb.WriteString(ch.Text)
		} else {
			sb.WriteString(string(runes[4:]))
		}
	}
	if sb.String() != text {
		t.Errorf("round-trip mismatch:\n got %q\nwant %q", sb.String(), text)
	}
}

func TestSplitDeterministic(t *testing.T) {
	c, err := NewPageChunker(12, 3)
	if err != nil {
		t.Fatal(err)
	}

	p := domain.PageUnit{Source: "report.pdf", Page: 7, Text: strings.Repeat("lorem ipsum ", 20)}

	first, err := c.Split(p)
	if err != nil {
		t.Fatal(err)
	}
	second, err := c.Split(p)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("two runs over identical input produced different chunks")
	}
}

func TestSplitIDsDistinctAndOrdinal(t *testing.T) {
	c, err := NewPageChunker(5, 1)
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := c.Split(domain.PageUnit{Source: "doc.pdf", Page: 2, Text: "abcdefghijklmnop"})
	if err != nil {
		t.Fatal(err)
	}

	seen := make(map[string]struct{})
	for i, ch := range chunks {
		if ch.IndexInPage != i {
			t.Errorf("chunk %d: expected IndexInPage %d, got %d", i, i, ch.IndexInPage)
		}
		if ch.ID != domain.ChunkID("doc.pdf", 2, i) {
			t.Errorf("chunk %d: unexpected ID %s", i, ch.ID)
		}
		if _, dup := seen[ch.ID]; dup {
			t.Errorf("duplicate chunk ID %s", ch.ID)
		}
		seen[ch.ID] = struct{}{}
	}
}

func TestSplitBlankPage(t *testing.T) {
	c, err := NewPageChunker(100, 0)
	if err != nil {
		t.Fatal(err)
	}

	chunks, err := c.Split(page("   \n\t  "))
	if err != nil {
		t.Fatal(err)
	}
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for a blank page, got %d", len(chunks))
	}
}

func TestNewPageChunkerRejectsBadParams(t *testing.T) {
	if _, err := NewPageChunker(0, 0); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := NewPageChunker(10, 10); err == nil {
		t.Error("expected error for overlap == size")
	}
	if _, err := NewPageChunker(10, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
}
