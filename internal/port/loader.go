package port

import "docchat/internal/domain"

// DocumentLoader reads source documents under a directory and produces
// page-level units in a deterministic order: documents sorted by name,
// pages in natural order.
type DocumentLoader interface {
	// Load returns the pages of every parseable document under root.
	// A document that cannot be parsed is reported in failures and the
	// remaining documents are still loaded; err is reserved for failures
	// of the scan itself.
	Load(root string) (pages []domain.PageUnit, failures []domain.LoadFailure, err error)
}
