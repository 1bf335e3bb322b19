package domain

import "errors"

// Error kinds for the ingestion and retrieval pipeline. Lower layers wrap
// these with %w so callers can classify failures with errors.Is.
var (
	// ErrLoad marks an unreadable or corrupt document. The affected
	// document is skipped and the run continues.
	ErrLoad = errors.New("document load failed")

	// ErrChunking marks malformed page text. The page is skipped.
	ErrChunking = errors.New("page chunking failed")

	// ErrProvider marks an unreachable or failing embedding/chat
	// capability. The current batch aborts without touching the store.
	ErrProvider = errors.New("provider unavailable")

	// ErrStore marks a vector store failure. Batches abort atomically,
	// so a retry of the whole run is always safe.
	ErrStore = errors.New("vector store failure")

	// ErrReset marks a reset that could not verify an empty index.
	ErrReset = errors.New("index reset failed")
)
