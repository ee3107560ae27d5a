package rerank

import (
	"math"
	"testing"
)

func TestCosine(t *testing.T) {
	tests := []struct {
		name   string
		a, b   []float32
		want   float64
		wantOK bool
	}{
		{"self", []float32{0.3, -1.2, 4}, []float32{0.3, -1.2, 4}, 1, true},
		{"opposite", []float32{1, 2}, []float32{-1, -2}, -1, true},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0, true},
		{"scaled", []float32{1, 1}, []float32{5, 5}, 1, true},
		{"dimension mismatch", []float32{1, 2}, []float32{1, 2, 3}, 0, false},
		{"zero norm", []float32{0, 0}, []float32{1, 1}, 0, false},
		{"empty", nil, nil, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := Cosine(tc.a, tc.b)
			if ok != tc.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tc.wantOK)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCosine_Bounds(t *testing.T) {
	vecs := [][]float32{
		{0.1, 0.7, -0.3},
		{-5, 2, 9},
		{1e-3, 1e-3, 1e-3},
		{100, -100, 0.5},
	}
	for _, a := range vecs {
		for _, b := range vecs {
			s, ok := Cosine(a, b)
			if !ok {
				t.Fatalf("Cosine(%v, %v) not scorable", a, b)
			}
			if s < -1-1e-9 || s > 1+1e-9 {
				t.Errorf("Cosine(%v, %v) = %v out of [-1, 1]", a, b, s)
			}
		}
	}
}
