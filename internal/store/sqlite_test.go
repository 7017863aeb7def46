package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conceptlens/backend/internal/domain/concept"
	"github.com/conceptlens/backend/internal/domain/evidence"
	"github.com/conceptlens/backend/internal/domain/gap"
	"github.com/conceptlens/backend/internal/domain/mastery"
	"github.com/conceptlens/backend/internal/domain/student"
	"github.com/conceptlens/backend/internal/store"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testEvidence(id, studentID, conceptID string, at time.Time) evidence.Evidence {
	return evidence.Evidence{
		ID:                     id,
		StudentID:              studentID,
		ConceptID:              conceptID,
		Timestamp:              at,
		ThinkingAnswer:         "because the denominators differ",
		ThinkingSeconds:        42,
		ThinkingAttempts:       1,
		ThinkingCorrectness:    evidence.Correct,
		Confusion:              "",
		Mistake:                "",
		Confidence:             4,
		ApplicationAnswer:      "3/4",
		ApplicationSeconds:     30,
		ApplicationCorrectness: evidence.Correct,
	}
}

func TestStudentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	st, err := student.New("Maya", "class-7a")
	require.NoError(t, err)
	require.NoError(t, s.SaveStudent(ctx, st))

	got, err := s.GetStudent(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, st.Name, got.Name)
	assert.Equal(t, st.ClassID, got.ClassID)

	_, err = s.GetStudent(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListStudentsByClass(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"Zoe", "Amir"} {
		st, err := student.New(name, "class-7a")
		require.NoError(t, err)
		require.NoError(t, s.SaveStudent(ctx, st))
	}
	other, err := student.New("Lin", "class-7b")
	require.NoError(t, err)
	require.NoError(t, s.SaveStudent(ctx, other))

	students, err := s.ListStudentsByClass(ctx, "class-7a")
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Amir", students[0].Name)
	assert.Equal(t, "Zoe", students[1].Name)
}

func TestConceptRoundTripWithPrerequisites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base, err := concept.New("Equivalent Fractions", nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveConcept(ctx, base))

	adv, err := concept.New("Adding Fractions", []string{base.ID})
	require.NoError(t, err)
	require.NoError(t, s.SaveConcept(ctx, adv))

	got, err := s.GetConcept(ctx, adv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Adding Fractions", got.Name)
	assert.Equal(t, []string{base.ID}, got.Prerequisites)

	all, err := s.ListConcepts(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Adding Fractions", all[0].Name)
	assert.Equal(t, []string{base.ID}, all[0].Prerequisites)
}

func TestEvidenceAppendAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.AppendEvidence(ctx, testEvidence("e2", "s1", "c1", base.Add(time.Hour))))
	require.NoError(t, s.AppendEvidence(ctx, testEvidence("e1", "s1", "c1", base)))
	require.NoError(t, s.AppendEvidence(ctx, testEvidence("e3", "s1", "c2", base)))

	history, err := s.ListEvidence(ctx, "s1", "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)

	// ordered oldest first regardless of insert order
	assert.Equal(t, "e1", history[0].ID)
	assert.Equal(t, "e2", history[1].ID)
	assert.Equal(t, base, history[0].Timestamp)
	assert.Equal(t, evidence.Correct, history[0].ThinkingCorrectness)
	assert.Equal(t, 4, history[0].Confidence)

	all, err := s.ListEvidenceByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pairs, err := s.ListEvidencePairs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Pair{{StudentID: "s1", ConceptID: "c1"}, {StudentID: "s1", ConceptID: "c2"}}, pairs)
}

func TestMasteryUpsert(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	row := mastery.ConceptMastery{
		StudentID:     "s1",
		ConceptID:     "c1",
		Score:         48,
		Level:         mastery.Emerging,
		Trend:         mastery.Stable,
		EvidenceCount: 2,
		UpdatedAt:     now,
	}
	require.NoError(t, s.UpsertMastery(ctx, row))

	row.Score = 62
	row.Level = mastery.Developing
	row.Trend = mastery.Improving
	row.EvidenceCount = 3
	row.UpdatedAt = now.Add(time.Hour)
	require.NoError(t, s.UpsertMastery(ctx, row))

	got, err := s.GetMastery(ctx, "s1", "c1")
	require.NoError(t, err)
	assert.Equal(t, 62, got.Score)
	assert.Equal(t, mastery.Developing, got.Level)
	assert.Equal(t, mastery.Improving, got.Trend)
	assert.Equal(t, 3, got.EvidenceCount)
	assert.Equal(t, now.Add(time.Hour), got.UpdatedAt)

	_, err = s.GetMastery(ctx, "s1", "other")
	assert.ErrorIs(t, err, store.ErrNotFound)

	rows, err := s.ListMasteryByStudent(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func testInsight(id string, t gap.Type) gap.Insight {
	return gap.Insight{
		ID:              id,
		StudentID:       "s1",
		ConceptID:       "c1",
		Type:            t,
		Severity:        gap.High,
		Description:     "Incorrect answers given with high confidence in 2 session(s)",
		SuggestedAction: "Provide feedback challenging assumptions",
		DetectedAt:      time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestInsertInsightIfAbsent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inserted, err := s.InsertInsightIfAbsent(ctx, testInsight("i1", gap.FalseConfidence))
	require.NoError(t, err)
	assert.True(t, inserted)

	// same type still open: second insert is a no-op
	inserted, err = s.InsertInsightIfAbsent(ctx, testInsight("i2", gap.FalseConfidence))
	require.NoError(t, err)
	assert.False(t, inserted)

	// a different type is independent
	inserted, err = s.InsertInsightIfAbsent(ctx, testInsight("i3", gap.Misconception))
	require.NoError(t, err)
	assert.True(t, inserted)

	open, err := s.ListUnresolvedInsights(ctx, "s1", "c1")
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestResolveInsightReopensDetection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	inserted, err := s.InsertInsightIfAbsent(ctx, testInsight("i1", gap.FalseConfidence))
	require.NoError(t, err)
	require.True(t, inserted)

	resolvedAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, s.ResolveInsight(ctx, "i1", resolvedAt))

	open, err := s.ListUnresolvedInsights(ctx, "s1", "c1")
	require.NoError(t, err)
	assert.Empty(t, open)

	// once resolved, the same type may be detected again
	inserted, err = s.InsertInsightIfAbsent(ctx, testInsight("i2", gap.FalseConfidence))
	require.NoError(t, err)
	assert.True(t, inserted)

	all, err := s.ListInsightsByStudent(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.NotNil(t, all[0].ResolvedAt)
	assert.Equal(t, resolvedAt, *all[0].ResolvedAt)
	assert.Nil(t, all[1].ResolvedAt)
}

func TestResolveInsightNotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.ResolveInsight(ctx, "missing", time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestResolveInsightTwice(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertInsightIfAbsent(ctx, testInsight("i1", gap.FragileUnderstanding))
	require.NoError(t, err)
	require.NoError(t, s.ResolveInsight(ctx, "i1", time.Now()))

	err = s.ResolveInsight(ctx, "i1", time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)
}
