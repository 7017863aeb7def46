package mastery_test

import (
	"errors"
	"testing"

	"github.com/conceptlens/backend/internal/domain/evidence"
	"github.com/conceptlens/backend/internal/domain/mastery"
)

// record builds a minimal evidence record where both session steps share
// the same correctness.
func record(c evidence.Correctness, confidence int, answer string) evidence.Evidence {
	return evidence.Evidence{
		StudentID:              "s",
		ConceptID:              "c",
		ThinkingAnswer:         answer,
		ThinkingCorrectness:    c,
		Confidence:             confidence,
		ApplicationCorrectness: c,
	}
}

func TestCalculate_EmptyHistory(t *testing.T) {
	_, err := mastery.Calculate(nil)
	if !errors.Is(err, mastery.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCalculate_ConfidenceOutOfRange(t *testing.T) {
	for _, confidence := range []int{0, 6, -1} {
		_, err := mastery.Calculate([]evidence.Evidence{record(evidence.Correct, confidence, "x")})
		if !errors.Is(err, mastery.ErrInvalidInput) {
			t.Errorf("confidence %d: expected ErrInvalidInput, got %v", confidence, err)
		}
	}
}

func TestCalculate_ScoreInRange(t *testing.T) {
	histories := [][]evidence.Evidence{
		{record(evidence.Correct, 5, "because channels synchronize goroutines and therefore avoid races")},
		{record(evidence.Incorrect, 1, "")},
		{record(evidence.Partial, 3, "short")},
		{
			record(evidence.Incorrect, 5, ""),
			record(evidence.Incorrect, 5, ""),
			record(evidence.Incorrect, 5, ""),
		},
	}
	for i, h := range histories {
		res, err := mastery.Calculate(h)
		if err != nil {
			t.Fatalf("history %d: unexpected error: %v", i, err)
		}
		if res.Score < 0 || res.Score > 100 {
			t.Errorf("history %d: score %d out of [0,100]", i, res.Score)
		}
	}
}

func TestCalculate_ExactBlend(t *testing.T) {
	// accuracy=100, alignment=100, trend=stable(70), explanation=40
	// score = 100*0.40 + 100*0.25 + 70*0.20 + 40*0.15 = 85
	res, err := mastery.Calculate([]evidence.Evidence{record(evidence.Correct, 5, "short")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 85 {
		t.Errorf("expected score 85, got %d", res.Score)
	}
	if res.Level != mastery.Proficient {
		t.Errorf("expected proficient, got %s", res.Level)
	}
	if res.Trend != mastery.Stable {
		t.Errorf("expected stable trend, got %s", res.Trend)
	}
}

func TestCalculate_ConfidenceAlignmentPenalty(t *testing.T) {
	// Same record but confidence 1: alignment drops from 100 to 0,
	// score = 40 + 0 + 14 + 6 = 60.
	res, err := mastery.Calculate([]evidence.Evidence{record(evidence.Correct, 1, "short")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 60 {
		t.Errorf("expected score 60, got %d", res.Score)
	}
	if res.Level != mastery.Developing {
		t.Errorf("expected developing, got %s", res.Level)
	}
}

func TestLevelForScore_Boundaries(t *testing.T) {
	tests := []struct {
		score int
		want  mastery.Level
	}{
		{0, mastery.Novice},
		{34, mastery.Novice},
		{35, mastery.Emerging},
		{54, mastery.Emerging},
		{55, mastery.Developing},
		{74, mastery.Developing},
		{75, mastery.Proficient},
		{89, mastery.Proficient},
		{90, mastery.Expert},
		{100, mastery.Expert},
	}
	for _, tt := range tests {
		if got := mastery.LevelForScore(tt.score); got != tt.want {
			t.Errorf("LevelForScore(%d) = %s, expected %s", tt.score, got, tt.want)
		}
	}
}

func TestCalculate_TrendImproving(t *testing.T) {
	history := []evidence.Evidence{
		record(evidence.Incorrect, 3, ""),
		record(evidence.Incorrect, 3, ""),
		record(evidence.Incorrect, 3, ""),
		record(evidence.Correct, 3, ""),
		record(evidence.Correct, 3, ""),
		record(evidence.Correct, 3, ""),
	}
	res, err := mastery.Calculate(history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Trend != mastery.Improving {
		t.Errorf("expected improving, got %s", res.Trend)
	}
}

func TestCalculate_TrendSymmetry(t *testing.T) {
	improving := []evidence.Evidence{
		record(evidence.Incorrect, 3, ""),
		record(evidence.Incorrect, 3, ""),
		record(evidence.Incorrect, 3, ""),
		record(evidence.Correct, 3, ""),
		record(evidence.Correct, 3, ""),
		record(evidence.Correct, 3, ""),
	}
	declining := make([]evidence.Evidence, len(improving))
	for i := range improving {
		declining[i] = improving[len(improving)-1-i]
	}

	up, err := mastery.Calculate(improving)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	down, err := mastery.Calculate(declining)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if up.Trend != mastery.Improving || down.Trend != mastery.Declining {
		t.Errorf("expected improving/declining, got %s/%s", up.Trend, down.Trend)
	}
}

func TestCalculate_TrendStableWithShortHistory(t *testing.T) {
	history := []evidence.Evidence{
		record(evidence.Incorrect, 3, ""),
		record(evidence.Correct, 3, ""),
		record(evidence.Correct, 3, ""),
	}
	res, err := mastery.Calculate(history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Trend != mastery.Stable {
		t.Errorf("expected stable with fewer than 6 records, got %s", res.Trend)
	}
}

func TestCalculate_AccuracyMonotonic(t *testing.T) {
	// Holding everything else fixed, flipping a record from incorrect to
	// correct must never lower the final score.
	worse := []evidence.Evidence{
		record(evidence.Incorrect, 3, "x"),
		record(evidence.Correct, 3, "x"),
	}
	better := []evidence.Evidence{
		record(evidence.Correct, 3, "x"),
		record(evidence.Correct, 3, "x"),
	}

	low, err := mastery.Calculate(worse)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	high, err := mastery.Calculate(better)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if high.Score < low.Score {
		t.Errorf("more correct answers lowered the score: %d < %d", high.Score, low.Score)
	}
}

func TestCalculate_ExplanationKeywords(t *testing.T) {
	plain := []evidence.Evidence{record(evidence.Correct, 3, "it just is")}
	reasoned := []evidence.Evidence{record(evidence.Correct, 3, "BECAUSE the parts are equal")}

	p, err := mastery.Calculate(plain)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, err := mastery.Calculate(reasoned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Score <= p.Score {
		t.Errorf("expected keyword match (case-insensitive) to raise score: %d <= %d", r.Score, p.Score)
	}
}
