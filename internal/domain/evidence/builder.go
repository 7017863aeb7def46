package evidence

import (
	"time"

	"github.com/google/uuid"
)

// Builder accumulates the fields a session capture layer collects step
// by step. Finalize validates completeness so downstream consumers only
// ever see complete, immutable records.
type Builder struct {
	ev Evidence
}

// NewBuilder starts a record for one (student, concept) session.
func NewBuilder(studentID, conceptID string) *Builder {
	return &Builder{ev: Evidence{
		StudentID:        studentID,
		ConceptID:        conceptID,
		ThinkingAttempts: 1,
	}}
}

func (b *Builder) Thinking(answer string, seconds, attempts int, c Correctness) *Builder {
	b.ev.ThinkingAnswer = answer
	b.ev.ThinkingSeconds = seconds
	b.ev.ThinkingAttempts = attempts
	b.ev.ThinkingCorrectness = c
	return b
}

func (b *Builder) Reflection(confusion, mistake string, confidence int) *Builder {
	b.ev.Confusion = confusion
	b.ev.Mistake = mistake
	b.ev.Confidence = confidence
	return b
}

func (b *Builder) Application(answer string, seconds int, c Correctness) *Builder {
	b.ev.ApplicationAnswer = answer
	b.ev.ApplicationSeconds = seconds
	b.ev.ApplicationCorrectness = c
	return b
}

func (b *Builder) At(ts time.Time) *Builder {
	b.ev.Timestamp = ts
	return b
}

// Finalize validates the accumulated fields and seals the record.
// An ID and timestamp are assigned here if the caller did not set one.
func (b *Builder) Finalize() (Evidence, error) {
	ev := b.ev
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	if err := ev.Validate(); err != nil {
		return Evidence{}, err
	}
	ev.ID = uuid.NewString()
	return ev, nil
}
