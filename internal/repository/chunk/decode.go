package chunk

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/kailas-cloud/serpdex/internal/db"
	"github.com/kailas-cloud/serpdex/internal/domain"
	"github.com/kailas-cloud/serpdex/internal/domain/chunk"
)

var errBadMetadata = errors.New("metadata is not valid JSON")

// decodeRow turns a raw row into a record. Any structural problem yields
// domain.ErrMalformedRecord. A broken metadata blob is not structural: the
// record keeps an empty object and the caller gets errBadMetadata alongside it.
func decodeRow(row db.ChunkRow, dim int) (chunk.Record, error) {
	var texts []string
	if err := json.Unmarshal(row.TextChunks, &texts); err != nil {
		return chunk.Record{}, fmt.Errorf("%s: text_chunks: %w: %w", row.URL, domain.ErrMalformedRecord, err)
	}

	var embs [][]float32
	var err error
	switch row.Format {
	case db.EmbeddingPacked:
		embs, err = unpackFloat32(row.Embeddings, dim)
	case db.EmbeddingJSON:
		err = json.Unmarshal(row.Embeddings, &embs)
	default:
		err = fmt.Errorf("unknown embedding format %d", row.Format)
	}
	if err != nil {
		return chunk.Record{}, fmt.Errorf("%s: embeddings: %w: %w", row.URL, domain.ErrMalformedRecord, err)
	}

	if len(texts) != len(embs) {
		return chunk.Record{}, fmt.Errorf("%s: %d chunks but %d embeddings: %w",
			row.URL, len(texts), len(embs), domain.ErrMalformedRecord)
	}

	meta, metaErr := decodeMetadata(row.Metadata)

	return chunk.Record{
		URL:        row.URL,
		Title:      row.Title,
		Dataset:    row.Dataset,
		Metadata:   meta,
		Chunks:     texts,
		Embeddings: embs,
	}, metaErr
}

func decodeMetadata(raw []byte) (any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	var meta any
	if err := json.Unmarshal(raw, &meta); err != nil {
		return map[string]any{}, fmt.Errorf("%w: %w", errBadMetadata, err)
	}
	if meta == nil {
		return map[string]any{}, nil
	}
	return meta, nil
}

// unpackFloat32 splits a little-endian float32 buffer into dim-sized vectors.
func unpackFloat32(buf []byte, dim int) ([][]float32, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", dim)
	}
	stride := dim * 4
	if len(buf)%stride != 0 {
		return nil, fmt.Errorf("buffer of %d bytes is not a multiple of %d", len(buf), stride)
	}
	out := make([][]float32, len(buf)/stride)
	for i := range out {
		vec := make([]float32, dim)
		base := i * stride
		for j := range vec {
			vec[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[base+j*4:]))
		}
		out[i] = vec
	}
	return out, nil
}
