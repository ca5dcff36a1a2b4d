package chat

import (
	"math"
	"testing"
)

func TestScoreFormula(t *testing.T) {
	tests := []struct {
		name    string
		r, s, a float64
		want    float64
	}{
		{"all high", 0.9, 0.9, 0.9, 0.9},
		{"all low", 0.2, 0.1, 0.3, 0.2},
		{"mixed", 0.6, 0.5, 0.5, 0.54},
		{"all zero", 0, 0, 0, 0},
		{"all one", 1, 1, 1, 1},
		{"retrieval only", 1, 0, 0, 0.4},
		{"coverage only", 0, 1, 0, 0.3},
		{"coherence only", 0, 0, 1, 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.r, tt.s, tt.a)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Score(%v, %v, %v) = %v, want %v", tt.r, tt.s, tt.a, got, tt.want)
			}
		})
	}
}

func TestScoreClampsInputs(t *testing.T) {
	if got := Score(1.5, -0.2, 2.0); got != Score(1, 0, 1) {
		t.Errorf("out-of-range inputs not clamped: got %v", got)
	}
	if got := Score(-1, -1, -1); got != 0 {
		t.Errorf("negative inputs should clamp to 0, got %v", got)
	}
}

func TestScoreMonotonic(t *testing.T) {
	base := Score(0.5, 0.5, 0.5)
	for _, bumped := range []float64{
		Score(0.6, 0.5, 0.5),
		Score(0.5, 0.6, 0.5),
		Score(0.5, 0.5, 0.6),
	} {
		if bumped <= base {
			t.Errorf("raising one input should raise the score: base %v, bumped %v", base, bumped)
		}
	}
}
