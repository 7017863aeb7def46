package gap

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conceptlens/backend/internal/domain/evidence"
	"github.com/conceptlens/backend/internal/domain/similarity"
)

// misconceptionThreshold is the similarity ratio above which two wrong
// answers count as the same mistake.
const misconceptionThreshold = 0.80

// PrerequisiteMastery is the student's standing on one prerequisite of
// the concept under analysis. Entries for prerequisite ids that no
// longer resolve in the concept relation are simply not supplied; the
// detector works with whatever references remain.
type PrerequisiteMastery struct {
	ConceptID  string
	Name       string
	Score      int
	HasMastery bool // false when the student has no mastery row yet
}

// Input carries everything one detection run needs. History must be the
// full evidence sequence for the pair, ordered oldest to newest.
type Input struct {
	StudentID     string
	ConceptID     string
	ConceptName   string
	History       []evidence.Evidence
	MasteryScore  int
	Prerequisites []PrerequisiteMastery

	// Unresolved lists insight types already open for this pair; the
	// detector suppresses re-detections of those types.
	Unresolved map[Type]bool

	Now time.Time
}

// Detect runs the four gap rules over one (student, concept) pair and
// returns at most one insight per type. Rules are independent and
// order-insensitive; running Detect twice against the same unresolved
// set yields nothing new the second time.
func Detect(in Input) []Insight {
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	var insights []Insight
	emit := func(t Type, severity Severity, description, action string) {
		if in.Unresolved[t] {
			return
		}
		insights = append(insights, Insight{
			ID:              uuid.NewString(),
			StudentID:       in.StudentID,
			ConceptID:       in.ConceptID,
			Type:            t,
			Severity:        severity,
			Description:     description,
			SuggestedAction: action,
			DetectedAt:      now,
		})
	}

	if n := countFragile(in.History); n > 0 {
		emit(FragileUnderstanding, Low,
			fmt.Sprintf("Correct answers given with low confidence in %d session(s)", n),
			actionFragile)
	}

	if size := largestMisconceptionCluster(in.History); size >= 3 {
		severity := Medium
		if size >= 5 {
			severity = High
		}
		emit(Misconception, severity,
			fmt.Sprintf("%d incorrect answers share nearly identical wording, pointing at a repeated misconception", size),
			actionMisconception)
	}

	if prereq, ok := weakestPrerequisite(in); ok {
		emit(MissingPrerequisite, High,
			fmt.Sprintf("Low mastery (score %d) with weak prerequisite %q (score %d)",
				in.MasteryScore, prereq.Name, prereq.Score),
			actionPrerequisite+prereq.Name)
	}

	if n := countFalseConfidence(in.History); n > 0 {
		emit(FalseConfidence, High,
			fmt.Sprintf("Incorrect answers given with high confidence in %d session(s)", n),
			actionFalseConf)
	}

	return insights
}

// countFragile counts sessions where a step was answered correctly but
// the student rated their confidence 2 or lower.
func countFragile(history []evidence.Evidence) int {
	n := 0
	for _, ev := range history {
		if ev.HasCorrectAnswer() && ev.Confidence <= 2 {
			n++
		}
	}
	return n
}

// countFalseConfidence counts sessions with an incorrect step rated at
// confidence 4 or higher.
func countFalseConfidence(history []evidence.Evidence) int {
	n := 0
	for _, ev := range history {
		if ev.HasIncorrectAnswer() && ev.Confidence >= 4 {
			n++
		}
	}
	return n
}

// largestMisconceptionCluster compares the wrong answers pairwise and
// returns the size of the biggest group of near-duplicates. A group is
// anchored on one answer and includes every other answer within the
// similarity threshold of it. O(n²) over the expected small n.
func largestMisconceptionCluster(history []evidence.Evidence) int {
	answers := incorrectAnswers(history)
	if len(answers) < 3 {
		return 0
	}

	largest := 0
	for i := range answers {
		size := 1
		for j := range answers {
			if i == j {
				continue
			}
			if similarity.Ratio(answers[i], answers[j]) > misconceptionThreshold {
				size++
			}
		}
		if size > largest {
			largest = size
		}
	}
	if largest < 3 {
		return 0
	}
	return largest
}

// incorrectAnswers extracts the answer text of each incorrectly answered
// step, normalized for stable comparison.
func incorrectAnswers(history []evidence.Evidence) []string {
	var answers []string
	for _, ev := range history {
		var text string
		switch {
		case ev.ThinkingCorrectness == evidence.Incorrect:
			text = ev.ThinkingAnswer
		case ev.ApplicationCorrectness == evidence.Incorrect:
			text = ev.ApplicationAnswer
		default:
			continue
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			continue
		}
		answers = append(answers, text)
	}
	return answers
}

// weakestPrerequisite finds the lowest-scoring prerequisite that
// qualifies the missing-prerequisite rule: this concept below 50 and the
// prerequisite below 60.
func weakestPrerequisite(in Input) (PrerequisiteMastery, bool) {
	if in.MasteryScore >= 50 {
		return PrerequisiteMastery{}, false
	}

	var weakest PrerequisiteMastery
	found := false
	for _, p := range in.Prerequisites {
		if !p.HasMastery || p.Score >= 60 {
			continue
		}
		if !found || p.Score < weakest.Score {
			weakest = p
			found = true
		}
	}
	return weakest, found
}
