package rerank

import (
	"context"

	"github.com/kailas-cloud/serpdex/internal/domain/chunk"
)

type mockChunkSource struct {
	records []chunk.Record
	err     error
	calls   int
	gotURLs []string
}

func (m *mockChunkSource) FetchRecords(_ context.Context, urls []string) ([]chunk.Record, error) {
	m.calls++
	m.gotURLs = urls
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

func strPtr(s string) *string { return &s }
