package chunk

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/serpdex/internal/db"
	"github.com/kailas-cloud/serpdex/internal/logger"
)

func newCounter() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{Name: "test_malformed_total"})
}

func TestFetchRecords_BatchesAndSkipsMissing(t *testing.T) {
	ms := &mockStore{rows: map[string]db.ChunkRow{}}
	var urls []string
	for i := range 5 {
		u := fmt.Sprintf("https://site%d.com/", i)
		urls = append(urls, u)
		if i != 3 {
			ms.rows[u] = packedRow(u, []string{"t"}, []float32{1, 0})
		}
	}

	repo := New(ms, Config{Dim: 2, BatchSize: 2, MaxParallel: 2}, nil)
	recs, err := repo.FetchRecords(context.Background(), urls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ms.batches) != 3 {
		t.Errorf("expected 3 batches, got %d", len(ms.batches))
	}
	for _, b := range ms.batches {
		if len(b) > 2 {
			t.Errorf("batch larger than BatchSize: %v", b)
		}
	}
	if len(recs) != 4 {
		t.Fatalf("expected 4 records (one missing), got %d", len(recs))
	}
	for _, r := range recs {
		if r.URL == urls[3] {
			t.Errorf("missing URL %s must not produce a record", r.URL)
		}
	}
}

func TestFetchRecords_IndependentOfBatching(t *testing.T) {
	ms := &mockStore{rows: map[string]db.ChunkRow{
		"https://a.com/": packedRow("https://a.com/", []string{"a"}, []float32{1, 0}),
		"https://b.com/": packedRow("https://b.com/", []string{"b"}, []float32{0, 1}),
		"https://c.com/": packedRow("https://c.com/", []string{"c"}, []float32{1, 1}),
	}}
	urls := []string{"https://a.com/", "https://b.com/", "https://c.com/"}

	one, err := New(ms, Config{Dim: 2, BatchSize: 1, MaxParallel: 3}, nil).FetchRecords(context.Background(), urls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	all, err := New(ms, Config{Dim: 2, BatchSize: 100}, nil).FetchRecords(context.Background(), urls)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(one) != len(all) {
		t.Fatalf("len differs: %d vs %d", len(one), len(all))
	}
	for i := range one {
		if one[i].URL != all[i].URL || one[i].Chunks[0] != all[i].Chunks[0] {
			t.Errorf("record %d differs: %+v vs %+v", i, one[i], all[i])
		}
	}
}

func TestFetchRecords_DropsMalformed(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	bad := packedRow("https://bad.com/", []string{"x"}, []float32{1, 0})
	bad.Embeddings = bad.Embeddings[:5] // truncated buffer
	ms := &mockStore{rows: map[string]db.ChunkRow{
		"https://bad.com/":  bad,
		"https://good.com/": packedRow("https://good.com/", []string{"ok"}, []float32{1, 0}),
	}}
	counter := newCounter()

	recs, err := New(ms, Config{Dim: 2}, counter).FetchRecords(ctx, []string{"https://bad.com/", "https://good.com/"})
	if err != nil {
		t.Fatalf("malformed rows must not fail the call: %v", err)
	}
	if len(recs) != 1 || recs[0].URL != "https://good.com/" {
		t.Errorf("recs = %+v", recs)
	}
	if got := testutil.ToFloat64(counter); got != 1 {
		t.Errorf("malformed counter = %f, want 1", got)
	}
	if logs.FilterMessage("Dropping malformed chunk record").Len() != 1 {
		t.Errorf("expected one warn log, got %v", logs.All())
	}
}

func TestFetchRecords_BadMetadataDefaultsToEmptyObject(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	row := packedRow("https://a.com/", []string{"x"}, []float32{1, 0})
	row.Metadata = []byte(`{not json`)
	ms := &mockStore{rows: map[string]db.ChunkRow{"https://a.com/": row}}

	recs, err := New(ms, Config{Dim: 2}, nil).FetchRecords(ctx, []string{"https://a.com/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected the record to survive, got %d", len(recs))
	}
	meta, ok := recs[0].Metadata.(map[string]any)
	if !ok || len(meta) != 0 {
		t.Errorf("Metadata = %#v, want empty object", recs[0].Metadata)
	}
	if logs.FilterMessage("Chunk metadata is not valid JSON, using empty object").Len() != 1 {
		t.Errorf("expected one warn log, got %v", logs.All())
	}
}

func TestFetchRecords_StoreError(t *testing.T) {
	storeErr := &db.Error{Op: db.OpFetchChunks, Err: context.DeadlineExceeded}
	ms := &mockStore{err: storeErr}

	_, err := New(ms, Config{}, nil).FetchRecords(context.Background(), []string{"u"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped DeadlineExceeded, got %v", err)
	}
}

func TestFetchRecords_Empty(t *testing.T) {
	ms := &mockStore{}
	recs, err := New(ms, Config{}, nil).FetchRecords(context.Background(), nil)
	if err != nil || recs != nil {
		t.Errorf("FetchRecords(nil) = %v, %v", recs, err)
	}
	if len(ms.batches) != 0 {
		t.Error("store must not be called for empty input")
	}
}

func TestNew_Defaults(t *testing.T) {
	r := New(&mockStore{}, Config{}, nil)
	if r.cfg.Dim != DefaultDim || r.cfg.BatchSize != DefaultBatchSize || r.cfg.MaxParallel != DefaultMaxParallel {
		t.Errorf("cfg = %+v", r.cfg)
	}
}

func TestSplit(t *testing.T) {
	got := split([]string{"a", "b", "c", "d", "e"}, 2)
	if len(got) != 3 || len(got[2]) != 1 || got[2][0] != "e" {
		t.Errorf("split = %v", got)
	}
}
