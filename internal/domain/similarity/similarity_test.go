package similarity_test

import (
	"math"
	"testing"

	"github.com/conceptlens/backend/internal/domain/similarity"
)

func TestRatio_Identical(t *testing.T) {
	for _, s := range []string{"a", "hello", "he forgot to carry the 1"} {
		if got := similarity.Ratio(s, s); got != 1.0 {
			t.Errorf("Ratio(%q, %q) = %v, expected 1.0", s, s, got)
		}
	}
}

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"kitten", "sitting"},
		{"he forgot to carry the 1", "forgot to carry the 1"},
		{"", "abc"},
	}
	for _, p := range pairs {
		ab := similarity.Ratio(p[0], p[1])
		ba := similarity.Ratio(p[1], p[0])
		if ab != ba {
			t.Errorf("Ratio(%q, %q) = %v but Ratio(%q, %q) = %v", p[0], p[1], ab, p[1], p[0], ba)
		}
	}
}

func TestRatio_Disjoint(t *testing.T) {
	if got := similarity.Ratio("abc", "xyz"); got != 0 {
		t.Errorf("expected 0 for fully different strings, got %v", got)
	}
}

func TestRatio_BothEmpty(t *testing.T) {
	if got := similarity.Ratio("", ""); got != 1.0 {
		t.Errorf("expected 1.0 for two empty strings, got %v", got)
	}
}

func TestRatio_KnownDistances(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		// kitten -> sitting: distance 3, max len 7
		{"kitten", "sitting", 1 - 3.0/7.0},
		// one substitution in a 4-char string
		{"flaw", "flat", 0.75},
		// insertion only
		{"cart", "carts", 0.8},
	}
	for _, tt := range tests {
		got := similarity.Ratio(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Ratio(%q, %q) = %v, expected %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRatio_SimilarWrongAnswers(t *testing.T) {
	// The clustering threshold for misconception detection is 0.80.
	a := "he forgot to carry the 1"
	b := "he forgot to carry the one"
	if got := similarity.Ratio(a, b); got <= 0.80 {
		t.Errorf("expected near-duplicate answers above 0.80, got %v", got)
	}
}

func TestRatio_CaseSensitive(t *testing.T) {
	if got := similarity.Ratio("ABC", "abc"); got == 1.0 {
		t.Error("expected case-sensitive comparison")
	}
}
