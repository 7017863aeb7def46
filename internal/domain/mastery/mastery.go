package mastery

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/conceptlens/backend/internal/domain/evidence"
)

// Level is the discrete band a score falls into.
type Level string

const (
	Novice     Level = "novice"     // 0-34
	Emerging   Level = "emerging"   // 35-54
	Developing Level = "developing" // 55-74
	Proficient Level = "proficient" // 75-89
	Expert     Level = "expert"     // 90-100
)

// Trend compares the most recent performance window against the prior one.
type Trend string

const (
	Improving Trend = "improving"
	Stable    Trend = "stable"
	Declining Trend = "declining"
)

// ErrInvalidInput covers an empty evidence history or out-of-range
// fields. These indicate a caller bug and are never retried.
var ErrInvalidInput = errors.New("mastery: invalid input")

// Result is the tuple stored per (student, concept) pair.
type Result struct {
	Score int
	Level Level
	Trend Trend
}

// ConceptMastery is the persisted row for one (student, concept) pair.
// Level is always derived from Score; the store recomputes nothing.
type ConceptMastery struct {
	StudentID     string
	ConceptID     string
	Score         int
	Level         Level
	Trend         Trend
	EvidenceCount int
	UpdatedAt     time.Time
}

// Weights of the four sub-scores in the final blend.
const (
	weightAccuracy    = 0.40
	weightConfidence  = 0.25
	weightImprovement = 0.20
	weightExplanation = 0.15
)

// trendWindow is how many recent records form each comparison window.
const trendWindow = 3

// reasoningKeywords mark an answer as containing explicit reasoning.
var reasoningKeywords = []string{"because", "therefore", "since"}

// Calculate turns a student-concept evidence history (ordered oldest to
// newest) into a score, level, and trend. The history must be non-empty
// and every record in range; it is a pure function with no side effects.
func Calculate(history []evidence.Evidence) (Result, error) {
	if len(history) == 0 {
		return Result{}, fmt.Errorf("%w: empty evidence history", ErrInvalidInput)
	}
	for _, ev := range history {
		if ev.Confidence < 1 || ev.Confidence > 5 {
			return Result{}, fmt.Errorf("%w: confidence %d out of range 1-5 (student %s, concept %s)",
				ErrInvalidInput, ev.Confidence, ev.StudentID, ev.ConceptID)
		}
	}

	accuracy := meanCorrectness(history)
	alignment := confidenceAlignment(history)
	trend := classifyTrend(history)
	explanation := explanationQuality(history)

	score := accuracy*weightAccuracy +
		alignment*weightConfidence +
		trend.value()*weightImprovement +
		explanation*weightExplanation

	rounded := int(math.Round(score))
	if rounded < 0 {
		rounded = 0
	}
	if rounded > 100 {
		rounded = 100
	}

	return Result{
		Score: rounded,
		Level: LevelForScore(rounded),
		Trend: trend,
	}, nil
}

// LevelForScore maps a score onto its band. Bands are disjoint and
// exhaustive over [0,100].
func LevelForScore(score int) Level {
	switch {
	case score >= 90:
		return Expert
	case score >= 75:
		return Proficient
	case score >= 55:
		return Developing
	case score >= 35:
		return Emerging
	default:
		return Novice
	}
}

func (t Trend) value() float64 {
	switch t {
	case Improving:
		return 100
	case Declining:
		return 40
	default:
		return 70
	}
}

// recordCorrectness averages the thinking and application correctness of
// one record onto the 0-100 scale.
func recordCorrectness(ev evidence.Evidence) float64 {
	return (ev.ThinkingCorrectness.Value() + ev.ApplicationCorrectness.Value()) / 2
}

func meanCorrectness(history []evidence.Evidence) float64 {
	sum := 0.0
	for _, ev := range history {
		sum += recordCorrectness(ev)
	}
	return sum / float64(len(history))
}

// confidenceAlignment rewards self-ratings that track actual results.
// Confidence 1-5 is normalized to 0-100 before comparing.
func confidenceAlignment(history []evidence.Evidence) float64 {
	sum := 0.0
	for _, ev := range history {
		normConfidence := float64(ev.Confidence-1) / 4 * 100
		sum += 100 - math.Abs(normConfidence-recordCorrectness(ev))
	}
	return sum / float64(len(history))
}

// classifyTrend compares the mean correctness of the newest trendWindow
// records against the window before them. With fewer than two full
// windows the trend is stable.
func classifyTrend(history []evidence.Evidence) Trend {
	if len(history) < 2*trendWindow {
		return Stable
	}

	recent := history[len(history)-trendWindow:]
	prior := history[len(history)-2*trendWindow : len(history)-trendWindow]

	recentMean := meanCorrectness(recent)
	priorMean := meanCorrectness(prior)

	switch {
	case recentMean > priorMean:
		return Improving
	case recentMean < priorMean:
		return Declining
	default:
		return Stable
	}
}

// explanationQuality scores how much reasoning an answer shows: +30 for
// substantial length, +30 for a reasoning keyword, +40 credit for
// addressing the prompt (withheld only when the text is empty).
func explanationQuality(history []evidence.Evidence) float64 {
	sum := 0.0
	for _, ev := range history {
		text := ev.CombinedAnswer()
		score := 0.0
		if len(text) > 50 {
			score += 30
		}
		lower := strings.ToLower(text)
		for _, kw := range reasoningKeywords {
			if strings.Contains(lower, kw) {
				score += 30
				break
			}
		}
		if text != "" {
			score += 40
		}
		if score > 100 {
			score = 100
		}
		sum += score
	}
	avg := sum / float64(len(history))
	if avg > 100 {
		avg = 100
	}
	return avg
}
