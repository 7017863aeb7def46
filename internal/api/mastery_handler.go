package api

import (
	"net/http"
	"time"

	"github.com/conceptlens/backend/internal/domain/mastery"
)

// ── Response types ──────────────────────────────────────────────────────────

type MasteryResponse struct {
	StudentID     string `json:"student_id"`
	ConceptID     string `json:"concept_id"`
	Score         int    `json:"score"`
	Level         string `json:"level"`
	Trend         string `json:"trend"`
	EvidenceCount int    `json:"evidence_count"`
	UpdatedAt     string `json:"updated_at"`
}

func toMasteryResponse(m mastery.ConceptMastery) MasteryResponse {
	return MasteryResponse{
		StudentID:     m.StudentID,
		ConceptID:     m.ConceptID,
		Score:         m.Score,
		Level:         string(m.Level),
		Trend:         string(m.Trend),
		EvidenceCount: m.EvidenceCount,
		UpdatedAt:     m.UpdatedAt.Format(time.RFC3339),
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// listStudentMastery returns a student's mastery across all concepts
// they have evidence for.
func (h *Handler) listStudentMastery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := r.PathValue("studentID")

	_, err := h.store.GetStudent(ctx, studentID)
	if h.handleStoreError(w, err, "student") {
		return
	}

	rows, err := h.store.ListMasteryByStudent(ctx, studentID)
	if err != nil {
		h.logger.Error("failed to load mastery", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load mastery")
		return
	}

	response := make([]MasteryResponse, len(rows))
	for i, m := range rows {
		response[i] = toMasteryResponse(m)
	}
	respondJSON(w, http.StatusOK, response)
}

// getStudentMastery returns one (student, concept) mastery row.
func (h *Handler) getStudentMastery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := r.PathValue("studentID")
	conceptID := r.PathValue("conceptID")

	m, err := h.store.GetMastery(ctx, studentID, conceptID)
	if h.handleStoreError(w, err, "mastery") {
		return
	}

	respondJSON(w, http.StatusOK, toMasteryResponse(m))
}
