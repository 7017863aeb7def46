// internal/api/router.go
package api

import "net/http"

// RegisterRoutes wires every handler onto the mux.
func RegisterRoutes(mux *http.ServeMux, h *Handler) {
	// Students
	mux.HandleFunc("POST /students", h.createStudent)
	mux.HandleFunc("GET /students/{studentID}", h.getStudent)
	mux.HandleFunc("GET /students/{studentID}/mastery", h.listStudentMastery)
	mux.HandleFunc("GET /students/{studentID}/mastery/{conceptID}", h.getStudentMastery)
	mux.HandleFunc("GET /students/{studentID}/gaps", h.listStudentGaps)

	// Concepts
	mux.HandleFunc("POST /concepts", h.createConcept)
	mux.HandleFunc("GET /concepts", h.listConcepts)
	mux.HandleFunc("GET /concepts/{conceptID}", h.getConcept)

	// Evidence capture
	mux.HandleFunc("POST /evidence", h.captureEvidence)

	// Gap insights
	mux.HandleFunc("POST /gaps/{insightID}/resolve", h.resolveGap)

	// Analysis
	mux.HandleFunc("POST /analysis/sweep", h.runSweep)

	// Classes
	mux.HandleFunc("GET /classes/{classID}/students", h.listClassStudents)
	mux.HandleFunc("GET /classes/{classID}/report", h.getClassReport)
}
