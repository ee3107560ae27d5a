package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/serpdex/internal/domain"
)

func withLimits(mod func(*Limits)) Limits {
	l := DefaultLimits()
	mod(&l)
	return l
}

func TestNew_Defaults(t *testing.T) {
	r, err := New("What is a lagrangian?", DefaultLimits(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "What is a lagrangian?" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Limits() != DefaultLimits() {
		t.Errorf("Limits() = %+v, want defaults", r.Limits())
	}
	if len(r.URLContains()) != 0 {
		t.Errorf("URLContains() = %v", r.URLContains())
	}
}

func TestNew_ExplicitValues(t *testing.T) {
	r, err := New("q", Limits{Broad: 10, Deduped: 5, Hierarchical: 3, Final: 1}, []string{"a.com", "", "b.org"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Limits{Broad: 10, Deduped: 5, Hierarchical: 3, Final: 1}
	if r.Limits() != want {
		t.Errorf("Limits() = %+v, want %+v", r.Limits(), want)
	}
	if got := r.URLContains(); len(got) != 3 || got[0] != "a.com" || got[1] != "" || got[2] != "b.org" {
		t.Errorf("URLContains() = %v", got)
	}
}

func TestNew_UpperBoundsInclusive(t *testing.T) {
	_, err := New("q", Limits{Broad: 3000, Deduped: 300, Hierarchical: 75, Final: 30}, nil)
	if err != nil {
		t.Fatalf("3x defaults must be accepted: %v", err)
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name   string
		query  string
		limits Limits
		substr string
	}{
		{"empty query", "", DefaultLimits(), "query is required"},
		{"blank query", "   ", DefaultLimits(), "query is required"},
		{"query too long", strings.Repeat("a", MaxQueryLength+1), DefaultLimits(), "too long"},
		{"broad too large", "q", withLimits(func(l *Limits) { l.Broad = 3001 }), "limit_broad_results"},
		{"deduped too large", "q", withLimits(func(l *Limits) { l.Deduped = 301 }), "limit_deduped_url_results"},
		{"hierarchical too large", "q", withLimits(func(l *Limits) { l.Hierarchical = 76 }), "limit_hierarchical_url_results"},
		{"final too large", "q", withLimits(func(l *Limits) { l.Final = 31 }), "limit_final_results"},
		{"negative final", "q", withLimits(func(l *Limits) { l.Final = -1 }), "must be positive"},
		{"zero broad", "q", withLimits(func(l *Limits) { l.Broad = 0 }), "limit_broad_results must be positive"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.query, tc.limits, nil)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.substr) {
				t.Errorf("error %q does not mention %q", err, tc.substr)
			}
		})
	}
}
