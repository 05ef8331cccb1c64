package utils

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"length mismatch", []float32{1, 2}, []float32{1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	got := Normalize([]float32{3, 4})
	if got == nil {
		t.Fatal("expected a normalized vector")
	}
	if mag := Magnitude(got); math.Abs(mag-1) > 1e-6 {
		t.Errorf("magnitude after normalize = %v, want 1", mag)
	}
	if Normalize([]float32{0, 0}) != nil {
		t.Error("zero vector must normalize to nil")
	}
}

func TestMean(t *testing.T) {
	t.Parallel()

	got := Mean([][]float32{{1, 2}, {3, 4}})
	want := []float32{2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Mean() = %v, want %v", got, want)
		}
	}
	if Mean(nil) != nil {
		t.Error("empty input must yield nil")
	}
}

func TestTopKByScore(t *testing.T) {
	t.Parallel()

	items := []ScoredItem[string]{
		{Item: "a", Score: 0.1},
		{Item: "b", Score: 0.9},
		{Item: "c", Score: 0.5},
		{Item: "d", Score: 0.7},
	}

	top := TopKByScore(items, 2)
	if len(top) != 2 || top[0].Item != "b" || top[1].Item != "d" {
		t.Errorf("TopKByScore(2) = %v", top)
	}

	all := TopKByScore(items, 10)
	if len(all) != 4 || all[0].Item != "b" || all[3].Item != "a" {
		t.Errorf("TopKByScore(10) = %v", all)
	}

	if TopKByScore(items, 0) != nil {
		t.Error("k=0 must yield nil")
	}
}
