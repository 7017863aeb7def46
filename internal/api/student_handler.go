package api

import (
	"errors"
	"net/http"

	"github.com/conceptlens/backend/internal/domain/student"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateStudentRequest struct {
	Name    string `json:"name"`
	ClassID string `json:"class_id"`
}

func (r *CreateStudentRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	if r.ClassID == "" {
		return errors.New("class_id is required")
	}
	return nil
}

type StudentResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	ClassID string `json:"class_id"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// createStudent registers a new student.
func (h *Handler) createStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateStudentRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	st, err := student.New(req.Name, req.ClassID)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SaveStudent(ctx, st); err != nil {
		h.logger.Error("failed to save student", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save student")
		return
	}

	respondJSON(w, http.StatusCreated, StudentResponse{
		ID:      st.ID,
		Name:    st.Name,
		ClassID: st.ClassID,
	})
}

// getStudent returns a single student.
func (h *Handler) getStudent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	studentID := r.PathValue("studentID")

	st, err := h.store.GetStudent(ctx, studentID)
	if h.handleStoreError(w, err, "student") {
		return
	}

	respondJSON(w, http.StatusOK, StudentResponse{
		ID:      st.ID,
		Name:    st.Name,
		ClassID: st.ClassID,
	})
}

// listClassStudents returns every student registered in a class.
func (h *Handler) listClassStudents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	classID := r.PathValue("classID")

	students, err := h.store.ListStudentsByClass(ctx, classID)
	if err != nil {
		h.logger.Error("failed to load students", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load students")
		return
	}

	response := make([]StudentResponse, len(students))
	for i, st := range students {
		response[i] = StudentResponse{
			ID:      st.ID,
			Name:    st.Name,
			ClassID: st.ClassID,
		}
	}
	respondJSON(w, http.StatusOK, response)
}
