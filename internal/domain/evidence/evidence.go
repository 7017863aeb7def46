package evidence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Correctness classifies one graded answer.
type Correctness string

const (
	Correct   Correctness = "correct"
	Partial   Correctness = "partial"
	Incorrect Correctness = "incorrect"
)

// ParseCorrectness validates a raw correctness string.
func ParseCorrectness(s string) (Correctness, error) {
	switch Correctness(s) {
	case Correct, Partial, Incorrect:
		return Correctness(s), nil
	}
	return "", fmt.Errorf("%w: correctness %q", ErrInvalidEvidence, s)
}

// Value maps correctness onto the 0-100 scale used by the mastery formula.
func (c Correctness) Value() float64 {
	switch c {
	case Correct:
		return 100
	case Partial:
		return 50
	default:
		return 0
	}
}

// ErrInvalidEvidence is the kind for all evidence validation failures.
// Callers check it with errors.Is and surface a validation message;
// these errors are never retried.
var ErrInvalidEvidence = errors.New("invalid evidence")

// Evidence is the immutable record of one completed learning session
// for a (student, concept) pair. Build it through a Builder; once
// finalized it is never mutated.
type Evidence struct {
	ID        string
	StudentID string
	ConceptID string
	Timestamp time.Time

	ThinkingAnswer      string
	ThinkingSeconds     int
	ThinkingAttempts    int
	ThinkingCorrectness Correctness

	Confusion string
	Mistake   string

	// Confidence is the student's self-rating, 1-5.
	Confidence int

	ApplicationAnswer      string
	ApplicationSeconds     int
	ApplicationCorrectness Correctness
}

// CombinedAnswer joins the thinking and application answer texts.
// Used by explanation-quality scoring and misconception clustering.
func (e Evidence) CombinedAnswer() string {
	if e.ThinkingAnswer == "" {
		return e.ApplicationAnswer
	}
	if e.ApplicationAnswer == "" {
		return e.ThinkingAnswer
	}
	return e.ThinkingAnswer + " " + e.ApplicationAnswer
}

// HasCorrectAnswer reports whether either step was answered correctly.
func (e Evidence) HasCorrectAnswer() bool {
	return e.ThinkingCorrectness == Correct || e.ApplicationCorrectness == Correct
}

// HasIncorrectAnswer reports whether either step was answered incorrectly.
func (e Evidence) HasIncorrectAnswer() bool {
	return e.ThinkingCorrectness == Incorrect || e.ApplicationCorrectness == Incorrect
}

// TotalSeconds is the time spent across both session steps.
func (e Evidence) TotalSeconds() int {
	return e.ThinkingSeconds + e.ApplicationSeconds
}

// Validate checks every range and enum constraint on a record.
func (e Evidence) Validate() error {
	if strings.TrimSpace(e.StudentID) == "" {
		return fmt.Errorf("%w: student id is required", ErrInvalidEvidence)
	}
	if strings.TrimSpace(e.ConceptID) == "" {
		return fmt.Errorf("%w: concept id is required", ErrInvalidEvidence)
	}
	if e.Confidence < 1 || e.Confidence > 5 {
		return fmt.Errorf("%w: confidence %d out of range 1-5 (student %s, concept %s)",
			ErrInvalidEvidence, e.Confidence, e.StudentID, e.ConceptID)
	}
	if e.ThinkingSeconds < 0 || e.ApplicationSeconds < 0 {
		return fmt.Errorf("%w: negative time (student %s, concept %s)",
			ErrInvalidEvidence, e.StudentID, e.ConceptID)
	}
	if e.ThinkingAttempts < 1 {
		return fmt.Errorf("%w: attempts must be at least 1 (student %s, concept %s)",
			ErrInvalidEvidence, e.StudentID, e.ConceptID)
	}
	if _, err := ParseCorrectness(string(e.ThinkingCorrectness)); err != nil {
		return err
	}
	if _, err := ParseCorrectness(string(e.ApplicationCorrectness)); err != nil {
		return err
	}
	return nil
}
