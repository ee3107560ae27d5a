package search

import (
	"slices"
	"testing"

	"github.com/kailas-cloud/serpdex/internal/domain/search/result"
)

func hits(urls ...string) []result.Result {
	out := make([]result.Result, len(urls))
	for i, u := range urls {
		out[i] = result.New(1-float64(i)/100, u, nil, nil, nil, "")
	}
	return out
}

func TestSelectTopURLs(t *testing.T) {
	tests := []struct {
		name    string
		in      []result.Result
		max     int
		filters []string
		want    []string
	}{
		{
			name: "first seen order, no duplicates",
			in:   hits("a.com/1", "b.com/2", "a.com/1", "c.com/3", "b.com/2"),
			max:  10,
			want: []string{"a.com/1", "b.com/2", "c.com/3"},
		},
		{
			name: "stops at max",
			in:   hits("u1", "u2", "u2", "u3", "u4"),
			max:  2,
			want: []string{"u1", "u2"},
		},
		{
			name:    "filter is OR",
			in:      hits("https://arxiv.org/a", "https://blog.io/b", "https://wikipedia.org/c"),
			max:     10,
			filters: []string{"wikipedia", "arxiv"},
			want:    []string{"https://arxiv.org/a", "https://wikipedia.org/c"},
		},
		{
			name:    "filter is case sensitive",
			in:      hits("https://Wikipedia.org/c"),
			max:     10,
			filters: []string{"wikipedia"},
			want:    []string{},
		},
		{
			name:    "rejected urls do not count toward max",
			in:      hits("x/1", "keep/1", "x/2", "keep/2", "keep/3"),
			max:     2,
			filters: []string{"keep"},
			want:    []string{"keep/1", "keep/2"},
		},
		{
			name:    "empty filter entry matches every url",
			in:      hits("https://blog.io/b", "https://arxiv.org/a"),
			max:     10,
			filters: []string{"", "arxiv"},
			want:    []string{"https://blog.io/b", "https://arxiv.org/a"},
		},
		{name: "empty input", in: nil, max: 5, want: []string{}},
		{name: "non-positive max", in: hits("u1"), max: 0, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := SelectTopURLs(tc.in, tc.max, tc.filters)
			if !slices.Equal(got, tc.want) {
				t.Errorf("SelectTopURLs() = %v, want %v", got, tc.want)
			}
		})
	}
}
