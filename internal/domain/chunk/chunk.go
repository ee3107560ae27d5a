// Package chunk describes the per-URL sub-chunk records kept in the chunk store.
package chunk

// Record is one URL with its ordered text chunks and their embeddings.
// Chunks[i] pairs with Embeddings[i].
type Record struct {
	URL        string
	Title      *string
	Dataset    *string
	Metadata   any
	Chunks     []string
	Embeddings [][]float32
}
