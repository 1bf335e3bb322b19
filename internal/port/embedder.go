package port

// Embedder generates vector embeddings for text.
type Embedder interface {
	// Embed generates embeddings for the given texts.
	// Returns a slice of vectors, one per input text.
	Embed(texts []string) ([][]float32, error)

	// Dimension returns the embedding vector dimension. It is constant
	// for the lifetime of a corpus; changing it invalidates the index.
	Dimension() int

	// ModelName returns the name of the embedding model.
	ModelName() string
}
