// internal/service/analysis.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/conceptlens/backend/internal/domain/evidence"
	"github.com/conceptlens/backend/internal/domain/gap"
	"github.com/conceptlens/backend/internal/domain/mastery"
	"github.com/conceptlens/backend/internal/store"
	"github.com/conceptlens/backend/internal/worker"
)

// AnalysisService runs the capture-then-analyze pipeline: append an
// evidence record, recompute the pair's mastery, and re-run gap
// detection. It owns the per-pair locks so the store stays a pure
// persistence layer.
type AnalysisService struct {
	store  store.Store
	logger *slog.Logger

	mu    sync.Mutex
	locks map[store.Pair]*sync.Mutex
}

// Analysis is the outcome of one pipeline run for a pair.
type Analysis struct {
	Mastery     mastery.ConceptMastery
	NewInsights []gap.Insight
}

func NewAnalysisService(s store.Store, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{
		store:  s,
		logger: logger,
		locks:  make(map[store.Pair]*sync.Mutex),
	}
}

// lockPair serializes pipeline runs for one (student, concept) pair.
// Different pairs never contend.
func (as *AnalysisService) lockPair(p store.Pair) func() {
	as.mu.Lock()
	lock, ok := as.locks[p]
	if !ok {
		lock = &sync.Mutex{}
		as.locks[p] = lock
	}
	as.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// CaptureEvidence persists a finalized record and runs analysis for its
// pair. The student and concept must already exist.
func (as *AnalysisService) CaptureEvidence(ctx context.Context, ev evidence.Evidence) (Analysis, error) {
	if _, err := as.store.GetStudent(ctx, ev.StudentID); err != nil {
		return Analysis{}, fmt.Errorf("student %s: %w", ev.StudentID, err)
	}
	if _, err := as.store.GetConcept(ctx, ev.ConceptID); err != nil {
		return Analysis{}, fmt.Errorf("concept %s: %w", ev.ConceptID, err)
	}

	pair := store.Pair{StudentID: ev.StudentID, ConceptID: ev.ConceptID}
	unlock := as.lockPair(pair)
	defer unlock()

	if err := as.store.AppendEvidence(ctx, ev); err != nil {
		return Analysis{}, fmt.Errorf("append evidence: %w", err)
	}

	result, err := as.analyzeLocked(ctx, pair)
	if err != nil {
		return Analysis{}, err
	}

	as.logger.Info("evidence captured",
		"student_id", ev.StudentID,
		"concept_id", ev.ConceptID,
		"score", result.Mastery.Score,
		"level", result.Mastery.Level,
		"new_insights", len(result.NewInsights),
	)
	return result, nil
}

// AnalyzePair recomputes mastery and gap insights for one pair from its
// stored history. Safe to call repeatedly; detection is idempotent
// against open insights.
func (as *AnalysisService) AnalyzePair(ctx context.Context, pair store.Pair) (Analysis, error) {
	unlock := as.lockPair(pair)
	defer unlock()
	return as.analyzeLocked(ctx, pair)
}

func (as *AnalysisService) analyzeLocked(ctx context.Context, pair store.Pair) (Analysis, error) {
	history, err := as.store.ListEvidence(ctx, pair.StudentID, pair.ConceptID)
	if err != nil {
		return Analysis{}, fmt.Errorf("load evidence: %w", err)
	}

	result, err := mastery.Calculate(history)
	if err != nil {
		return Analysis{}, err
	}

	row := mastery.ConceptMastery{
		StudentID:     pair.StudentID,
		ConceptID:     pair.ConceptID,
		Score:         result.Score,
		Level:         result.Level,
		Trend:         result.Trend,
		EvidenceCount: len(history),
		UpdatedAt:     time.Now().UTC(),
	}
	if err := as.store.UpsertMastery(ctx, row); err != nil {
		return Analysis{}, fmt.Errorf("upsert mastery: %w", err)
	}

	input, err := as.detectionInput(ctx, pair, history, result.Score)
	if err != nil {
		return Analysis{}, err
	}

	var inserted []gap.Insight
	for _, in := range gap.Detect(input) {
		ok, err := as.store.InsertInsightIfAbsent(ctx, in)
		if err != nil {
			return Analysis{}, fmt.Errorf("insert insight: %w", err)
		}
		if ok {
			inserted = append(inserted, in)
		}
	}

	return Analysis{Mastery: row, NewInsights: inserted}, nil
}

// detectionInput assembles everything the gap rules look at: the
// concept's name, the student's standing on each prerequisite, and the
// set of insight types already open for the pair.
func (as *AnalysisService) detectionInput(ctx context.Context, pair store.Pair, history []evidence.Evidence, score int) (gap.Input, error) {
	c, err := as.store.GetConcept(ctx, pair.ConceptID)
	if err != nil {
		return gap.Input{}, fmt.Errorf("load concept: %w", err)
	}

	var prereqs []gap.PrerequisiteMastery
	for _, prereqID := range c.Prerequisites {
		prereqConcept, err := as.store.GetConcept(ctx, prereqID)
		if errors.Is(err, store.ErrNotFound) {
			// dangling reference: the prerequisite was removed
			continue
		}
		if err != nil {
			return gap.Input{}, fmt.Errorf("load prerequisite %s: %w", prereqID, err)
		}

		pm := gap.PrerequisiteMastery{ConceptID: prereqID, Name: prereqConcept.Name}
		m, err := as.store.GetMastery(ctx, pair.StudentID, prereqID)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			return gap.Input{}, fmt.Errorf("load prerequisite mastery %s: %w", prereqID, err)
		default:
			pm.Score = m.Score
			pm.HasMastery = true
		}
		prereqs = append(prereqs, pm)
	}

	open, err := as.store.ListUnresolvedInsights(ctx, pair.StudentID, pair.ConceptID)
	if err != nil {
		return gap.Input{}, fmt.Errorf("load open insights: %w", err)
	}
	unresolved := make(map[gap.Type]bool, len(open))
	for _, in := range open {
		unresolved[in.Type] = true
	}

	return gap.Input{
		StudentID:     pair.StudentID,
		ConceptID:     pair.ConceptID,
		ConceptName:   c.Name,
		History:       history,
		MasteryScore:  score,
		Prerequisites: prereqs,
		Unresolved:    unresolved,
		Now:           time.Now().UTC(),
	}, nil
}

// SweepStats summarizes one batch recomputation.
type SweepStats struct {
	Pairs    int
	Failed   int
	Insights int
}

// Sweep re-analyzes every pair that has evidence, fanned out over a
// worker pool. One failing pair does not stop the rest.
func (as *AnalysisService) Sweep(ctx context.Context, workers int) (SweepStats, error) {
	pairs, err := as.store.ListEvidencePairs(ctx)
	if err != nil {
		return SweepStats{}, fmt.Errorf("list pairs: %w", err)
	}
	if len(pairs) == 0 {
		return SweepStats{}, nil
	}
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		insights int
		err      error
	}

	pool := worker.NewPool[outcome](workers, len(pairs))
	for _, pair := range pairs {
		p := pair
		pool.Submit(p.StudentID+"/"+p.ConceptID, func() outcome {
			result, err := as.AnalyzePair(ctx, p)
			return outcome{insights: len(result.NewInsights), err: err}
		})
	}
	pool.Close()

	stats := SweepStats{Pairs: len(pairs)}
	for res := range pool.Results() {
		if res.Output.err != nil {
			stats.Failed++
			as.logger.Error("sweep pair failed", "pair", res.JobID, "error", res.Output.err)
			continue
		}
		stats.Insights += res.Output.insights
	}

	as.logger.Info("sweep finished",
		"pairs", stats.Pairs,
		"failed", stats.Failed,
		"new_insights", stats.Insights,
	)
	return stats, nil
}
