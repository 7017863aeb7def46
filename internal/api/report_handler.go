package api

import (
	"net/http"
	"time"

	"github.com/conceptlens/backend/internal/domain/analytics"
)

// ── Response types ──────────────────────────────────────────────────────────

type ConceptSummaryResponse struct {
	ConceptID    string  `json:"concept_id"`
	AverageScore float64 `json:"average_score"`
	StudentCount int     `json:"student_count"`
}

type StudentSummaryResponse struct {
	StudentID      string  `json:"student_id"`
	Name           string  `json:"name"`
	AverageScore   float64 `json:"average_score"`
	AverageSeconds float64 `json:"average_seconds"`
	Struggling     bool    `json:"struggling"`
	Rushing        bool    `json:"rushing"`
	Calibration    string  `json:"calibration"`
}

type ClassReportResponse struct {
	ClassID             string                   `json:"class_id"`
	GeneratedAt         string                   `json:"generated_at"`
	ClassAverageSeconds float64                  `json:"class_average_seconds"`
	WeakestConcepts     []ConceptSummaryResponse `json:"weakest_concepts"`
	Students            []StudentSummaryResponse `json:"students"`
}

func toClassReportResponse(classID string, report analytics.ClassReport) ClassReportResponse {
	concepts := make([]ConceptSummaryResponse, len(report.WeakestConcepts))
	for i, c := range report.WeakestConcepts {
		concepts[i] = ConceptSummaryResponse{
			ConceptID:    c.ConceptID,
			AverageScore: c.AverageScore,
			StudentCount: c.StudentCount,
		}
	}

	students := make([]StudentSummaryResponse, len(report.Students))
	for i, s := range report.Students {
		students[i] = StudentSummaryResponse{
			StudentID:      s.StudentID,
			Name:           s.Name,
			AverageScore:   s.AverageScore,
			AverageSeconds: s.AverageSeconds,
			Struggling:     s.Struggling,
			Rushing:        s.Rushing,
			Calibration:    string(s.Calibration),
		}
	}

	return ClassReportResponse{
		ClassID:             classID,
		GeneratedAt:         report.GeneratedAt.Format(time.RFC3339),
		ClassAverageSeconds: report.ClassAverageSeconds,
		WeakestConcepts:     concepts,
		Students:            students,
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// getClassReport returns the aggregated class view.
func (h *Handler) getClassReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	classID := r.PathValue("classID")

	report, err := h.reports.ClassReport(ctx, classID)
	if h.handleStoreError(w, err, "class") {
		return
	}

	respondJSON(w, http.StatusOK, toClassReportResponse(classID, report))
}
