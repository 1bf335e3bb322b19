package loader

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"docchat/internal/adapter/fs"
	"docchat/internal/domain"
)

// PDFLoader reads text-bearing PDFs from a directory and emits one PageUnit
// per page. Documents are visited in root-relative path order, and that
// relative path is the Source carried into chunk IDs, so two files with the
// same name in different subdirectories stay distinct. A corrupt or
// unreadable file is reported as a failure without aborting the rest of
// the run.
type PDFLoader struct {
	walker  *fs.Walker
	extract func(path string) ([]string, error)
}

func NewPDFLoader(includes, excludes []string) *PDFLoader {
	if len(includes) == 0 {
		includes = []string{"**/*.pdf"}
	}
	return &PDFLoader{
		walker:  fs.NewWalker(includes, excludes),
		extract: extractPages,
	}
}

func (l *PDFLoader) Load(root string) ([]domain.PageUnit, []domain.LoadFailure, error) {
	files, err := l.walker.Walk(root)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: scanning %s: %v", domain.ErrLoad, root, err)
	}

	var pages []domain.PageUnit
	var failures []domain.LoadFailure

	for _, file := range files {
		name := file.Rel
		texts, err := l.extract(file.Path)
		if err != nil {
			failures = append(failures, domain.LoadFailure{
				Source: name,
				Err:    fmt.Errorf("%w: %s: %v", domain.ErrLoad, name, err),
			})
			continue
		}
		for i, text := range texts {
			pages = append(pages, domain.PageUnit{
				Source: name,
				Page:   i + 1,
				Text:   text,
			})
		}
	}

	return pages, failures, nil
}

// extractPages pulls plain text out of every page of a PDF. A document
// whose pages yield no text at all (scanned or image-only) is treated as
// unparseable rather than silently indexed as empty.
func extractPages(path string) ([]string, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	total := reader.NumPage()
	pages := make([]string, 0, total)
	empty := true

	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if strings.TrimSpace(text) != "" {
			empty = false
		}
		pages = append(pages, text)
	}

	if empty {
		return nil, fmt.Errorf("no extractable text in %d pages", total)
	}
	return pages, nil
}
