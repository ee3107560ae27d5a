package chunk

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"math"
	"sync"

	"github.com/kailas-cloud/serpdex/internal/db"
)

// mockStore implements the consumer interface for tests. Safe for concurrent batches.
type mockStore struct {
	mu      sync.Mutex
	rows    map[string]db.ChunkRow
	err     error
	batches [][]string
}

func (m *mockStore) FetchChunks(_ context.Context, urls []string) ([]db.ChunkRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches = append(m.batches, urls)
	if m.err != nil {
		return nil, m.err
	}
	var out []db.ChunkRow
	for _, u := range urls {
		if r, ok := m.rows[u]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func pack(vecs ...[]float32) []byte {
	var buf []byte
	for _, v := range vecs {
		for _, f := range v {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return buf
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func packedRow(url string, texts []string, vecs ...[]float32) db.ChunkRow {
	return db.ChunkRow{
		URL:        url,
		Metadata:   []byte(`{"source":"test"}`),
		TextChunks: mustJSON(texts),
		Embeddings: pack(vecs...),
		Format:     db.EmbeddingPacked,
	}
}
