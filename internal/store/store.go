package store

import (
	"context"
	"errors"
	"time"

	"github.com/conceptlens/backend/internal/domain/concept"
	"github.com/conceptlens/backend/internal/domain/evidence"
	"github.com/conceptlens/backend/internal/domain/gap"
	"github.com/conceptlens/backend/internal/domain/mastery"
	"github.com/conceptlens/backend/internal/domain/student"
)

var (
	ErrNotFound = errors.New("not found")
)

// Pair identifies one (student, concept) analysis unit.
type Pair struct {
	StudentID string
	ConceptID string
}

// Store is the persistence boundary of the engine. The engine's outputs
// (mastery tuples, gap insights) are handed to it unchanged; it performs
// no retries — failures propagate to the caller.
type Store interface {
	SaveStudent(ctx context.Context, s *student.Student) error
	GetStudent(ctx context.Context, id string) (*student.Student, error)
	ListStudentsByClass(ctx context.Context, classID string) ([]*student.Student, error)

	SaveConcept(ctx context.Context, c *concept.Concept) error
	GetConcept(ctx context.Context, id string) (*concept.Concept, error)
	ListConcepts(ctx context.Context) ([]*concept.Concept, error)

	// AppendEvidence inserts one finalized record; evidence rows are
	// append-only and never updated.
	AppendEvidence(ctx context.Context, ev evidence.Evidence) error
	ListEvidence(ctx context.Context, studentID, conceptID string) ([]evidence.Evidence, error)
	ListEvidenceByStudent(ctx context.Context, studentID string) ([]evidence.Evidence, error)

	UpsertMastery(ctx context.Context, m mastery.ConceptMastery) error
	GetMastery(ctx context.Context, studentID, conceptID string) (mastery.ConceptMastery, error)
	ListMasteryByStudent(ctx context.Context, studentID string) ([]mastery.ConceptMastery, error)

	// ListEvidencePairs returns every (student, concept) pair that has
	// at least one evidence record; the batch sweep iterates these.
	ListEvidencePairs(ctx context.Context) ([]Pair, error)

	// InsertInsightIfAbsent persists the insight unless an unresolved
	// insight of the same (student, concept, type) already exists. The
	// conditional insert is the dedup serialization point; it reports
	// whether a row was written.
	InsertInsightIfAbsent(ctx context.Context, in gap.Insight) (bool, error)
	ListUnresolvedInsights(ctx context.Context, studentID, conceptID string) ([]gap.Insight, error)
	ListInsightsByStudent(ctx context.Context, studentID string) ([]gap.Insight, error)
	ResolveInsight(ctx context.Context, insightID string, resolvedAt time.Time) error
}
