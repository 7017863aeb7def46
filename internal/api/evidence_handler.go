package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/conceptlens/backend/internal/domain/evidence"
)

// ── Request / Response types ────────────────────────────────────────────────

type ThinkingStep struct {
	Answer      string `json:"answer"`
	Seconds     int    `json:"seconds"`
	Attempts    int    `json:"attempts"`
	Correctness string `json:"correctness"`
}

type ReflectionStep struct {
	Confusion  string `json:"confusion"`
	Mistake    string `json:"mistake"`
	Confidence int    `json:"confidence"`
}

type ApplicationStep struct {
	Answer      string `json:"answer"`
	Seconds     int    `json:"seconds"`
	Correctness string `json:"correctness"`
}

type CaptureEvidenceRequest struct {
	StudentID   string          `json:"student_id"`
	ConceptID   string          `json:"concept_id"`
	Timestamp   *time.Time      `json:"timestamp,omitempty"`
	Thinking    ThinkingStep    `json:"thinking"`
	Reflection  ReflectionStep  `json:"reflection"`
	Application ApplicationStep `json:"application"`
}

func (r *CaptureEvidenceRequest) Validate() error {
	if r.StudentID == "" {
		return errors.New("student_id is required")
	}
	if r.ConceptID == "" {
		return errors.New("concept_id is required")
	}
	return nil
}

type GapInsightResponse struct {
	ID              string `json:"id"`
	StudentID       string `json:"student_id"`
	ConceptID       string `json:"concept_id"`
	GapType         string `json:"gap_type"`
	Severity        string `json:"severity"`
	Description     string `json:"description"`
	SuggestedAction string `json:"suggested_action"`
	DetectedAt      string `json:"detected_at"`
	ResolvedAt      string `json:"resolved_at,omitempty"`
}

type CaptureEvidenceResponse struct {
	EvidenceID  string               `json:"evidence_id"`
	Mastery     MasteryResponse      `json:"mastery"`
	NewInsights []GapInsightResponse `json:"new_insights"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// captureEvidence records one completed session and returns the
// recomputed mastery plus any gap insights the record surfaced.
func (h *Handler) captureEvidence(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CaptureEvidenceRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	builder := evidence.NewBuilder(req.StudentID, req.ConceptID).
		Thinking(req.Thinking.Answer, req.Thinking.Seconds, req.Thinking.Attempts, evidence.Correctness(req.Thinking.Correctness)).
		Reflection(req.Reflection.Confusion, req.Reflection.Mistake, req.Reflection.Confidence).
		Application(req.Application.Answer, req.Application.Seconds, evidence.Correctness(req.Application.Correctness))
	if req.Timestamp != nil {
		builder.At(*req.Timestamp)
	}

	ev, err := builder.Finalize()
	if errors.Is(err, evidence.ErrInvalidEvidence) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("failed to build evidence", "error", err)
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	result, err := h.analysis.CaptureEvidence(ctx, ev)
	if h.handleStoreError(w, err, "student or concept") {
		return
	}

	// the class report is stale now
	if st, err := h.store.GetStudent(ctx, ev.StudentID); err == nil {
		h.reports.InvalidateClass(ctx, st.ClassID)
	}

	insights := make([]GapInsightResponse, len(result.NewInsights))
	for i, in := range result.NewInsights {
		insights[i] = toGapInsightResponse(in)
	}

	respondJSON(w, http.StatusCreated, CaptureEvidenceResponse{
		EvidenceID:  ev.ID,
		Mastery:     toMasteryResponse(result.Mastery),
		NewInsights: insights,
	})
}
