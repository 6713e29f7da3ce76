package embedding

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{
			name: "identical vectors",
			a:    []float32{1, 2, 3},
			b:    []float32{1, 2, 3},
			want: 1,
		},
		{
			name: "orthogonal vectors",
			a:    []float32{1, 0},
			b:    []float32{0, 1},
			want: 0,
		},
		{
			name: "opposite vectors",
			a:    []float32{1, 0},
			b:    []float32{-1, 0},
			want: -1,
		},
		{
			name: "zero vector",
			a:    []float32{0, 0, 0},
			b:    []float32{1, 2, 3},
			want: 0,
		},
		{
			name: "both empty",
			a:    nil,
			b:    nil,
			want: 0,
		},
		{
			name: "mismatched lengths truncate to shorter",
			a:    []float32{1, 0, 5, 5},
			b:    []float32{1, 0},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(float64(got-tt.want)) > 1e-6 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarityIsSymmetric(t *testing.T) {
	a := []float32{0.3, -1.2, 4.5, 0.01}
	b := []float32{2.2, 0.9, -0.5, 1.7}
	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Error("similarity is not symmetric")
	}
}

func TestCosineSimilarityBounded(t *testing.T) {
	a := []float32{12.5, -3.1, 0.004, 99}
	b := []float32{-7, 2.2, 810, 0.1}
	got := CosineSimilarity(a, b)
	if got < -1.000001 || got > 1.000001 {
		t.Errorf("similarity %v outside [-1, 1]", got)
	}
}

func TestFloat32BytesRoundTrip(t *testing.T) {
	in := []float32{0, 1, -1, 0.5, float32(math.Pi), -1e-7}
	out := BytesToFloat32s(Float32sToBytes(in))

	if len(out) != len(in) {
		t.Fatalf("length mismatch: got %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("index %d: got %v, want %v", i, out[i], in[i])
		}
	}
}
