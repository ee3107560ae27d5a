package db

// EmbeddingFormat is the on-disk encoding of a row's chunk embeddings.
type EmbeddingFormat int

const (
	// EmbeddingPacked is a flat little-endian float32 buffer, Dim values per chunk.
	EmbeddingPacked EmbeddingFormat = iota
	// EmbeddingJSON is a JSON array of float arrays, one per chunk.
	EmbeddingJSON
)

func (f EmbeddingFormat) String() string {
	switch f {
	case EmbeddingPacked:
		return "packed"
	case EmbeddingJSON:
		return "json"
	default:
		return "unknown"
	}
}

// ChunkRow is one undecoded chunk store row. Decoding happens in the repository
// so a single bad row can be dropped without failing the batch.
type ChunkRow struct {
	URL        string
	Title      *string
	Dataset    *string
	Metadata   []byte
	TextChunks []byte
	Embeddings []byte
	Format     EmbeddingFormat
}
