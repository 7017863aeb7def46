package api

import (
	"net/http"
	"time"

	"github.com/conceptlens/backend/internal/domain/gap"
)

func toGapInsightResponse(in gap.Insight) GapInsightResponse {
	resp := GapInsightResponse{
		ID:              in.ID,
		StudentID:       in.StudentID,
		ConceptID:       in.ConceptID,
		GapType:         string(in.Type),
		Severity:        string(in.Severity),
		Description:     in.Description,
		SuggestedAction: in.SuggestedAction,
		DetectedAt:      in.DetectedAt.Format(time.RFC3339),
	}
	if in.ResolvedAt != nil {
		resp.ResolvedAt = in.ResolvedAt.Format(time.RFC3339)
	}
	return resp
}

// ── Handlers ────────────────────────────────────────────────────────────────

// listStudentGaps returns every gap insight for a student, open and
// resolved. Pass ?unresolved=true to see only open ones.
func (h *Handler) listStudentGaps(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := r.PathValue("studentID")

	_, err := h.store.GetStudent(ctx, studentID)
	if h.handleStoreError(w, err, "student") {
		return
	}

	insights, err := h.store.ListInsightsByStudent(ctx, studentID)
	if err != nil {
		h.logger.Error("failed to load insights", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load insights")
		return
	}

	onlyOpen := r.URL.Query().Get("unresolved") == "true"

	response := make([]GapInsightResponse, 0, len(insights))
	for _, in := range insights {
		if onlyOpen && in.ResolvedAt != nil {
			continue
		}
		response = append(response, toGapInsightResponse(in))
	}
	respondJSON(w, http.StatusOK, response)
}

// resolveGap marks an insight as addressed. The same gap type may be
// detected again afterwards if the pattern persists.
func (h *Handler) resolveGap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	insightID := r.PathValue("insightID")

	err := h.store.ResolveInsight(ctx, insightID, time.Now().UTC())
	if h.handleStoreError(w, err, "insight") {
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "resolved"})
}
