package index

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kailas-cloud/serpdex/internal/db"
	"github.com/kailas-cloud/serpdex/internal/logger"
)

func TestSearch_BuildsQuery(t *testing.T) {
	var got *db.KNNQuery
	ms := &mockStore{searchKNNFn: func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		got = q
		return &db.SearchResult{}, nil
	}}

	res, err := New(ms, "serp:idx").Search(context.Background(), []float32{0.1, 0.2}, 1000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res != nil {
		t.Errorf("expected nil results for empty index, got %v", res)
	}
	if got.IndexName != "serp:idx" || got.K != 1000 || len(got.Vector) != 2 {
		t.Errorf("query = %+v", got)
	}
	if len(got.ReturnFields) != 2 || got.ReturnFields[0] != db.FieldURL || got.ReturnFields[1] != db.FieldText {
		t.Errorf("ReturnFields = %v", got.ReturnFields)
	}
}

func TestSearch_OrdersStablyByScore(t *testing.T) {
	ms := &mockStore{searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 4, Entries: []db.SearchEntry{
			entry("k1", "https://a.com/1", "a1", 0.5),
			entry("k2", "https://b.com/1", "b1", 0.9),
			entry("k3", "https://c.com/1", "c1", 0.5),
			entry("k4", "https://d.com/1", "d1", 0.7),
		}}, nil
	}}

	res, err := New(ms, "idx").Search(context.Background(), []float32{1}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"https://b.com/1", "https://d.com/1", "https://a.com/1", "https://c.com/1"}
	if len(res) != len(want) {
		t.Fatalf("expected %d results, got %d", len(want), len(res))
	}
	for i, w := range want {
		if res[i].URL() != w {
			t.Errorf("res[%d] = %s, want %s", i, res[i].URL(), w)
		}
		if res[i].Title() != nil {
			t.Errorf("broad result %d must not carry a title", i)
		}
	}
	if res[0].Text() != "b1" || res[0].Score() != 0.9 {
		t.Errorf("res[0] = %+v", res[0])
	}
}

func TestSearch_SkipsEntriesWithoutURL(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	ctx := logger.ContextWithLogger(context.Background(), zap.New(core))

	ms := &mockStore{searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return &db.SearchResult{Total: 2, Entries: []db.SearchEntry{
			{Key: "broken", Score: 0.99, Fields: map[string]string{db.FieldText: "orphan"}},
			entry("k2", "https://a.com/1", "a1", 0.5),
		}}, nil
	}}

	res, err := New(ms, "idx").Search(ctx, []float32{1}, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res) != 1 || res[0].URL() != "https://a.com/1" {
		t.Errorf("res = %v", res)
	}
	if logs.FilterMessage("Index entry without url, skipping").Len() != 1 {
		t.Errorf("expected one warn log, got %v", logs.All())
	}
}

func TestSearch_StoreError(t *testing.T) {
	storeErr := &db.Error{Op: db.OpSearch, Err: errors.New("connection refused")}
	ms := &mockStore{searchKNNFn: func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, storeErr
	}}

	_, err := New(ms, "idx").Search(context.Background(), []float32{1}, 10)
	var dbErr *db.Error
	if !errors.As(err, &dbErr) {
		t.Errorf("expected wrapped db.Error, got %v", err)
	}
}
