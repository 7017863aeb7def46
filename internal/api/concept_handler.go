package api

import (
	"errors"
	"net/http"

	"github.com/conceptlens/backend/internal/domain/concept"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateConceptRequest struct {
	Name          string   `json:"name"`
	Prerequisites []string `json:"prerequisites,omitempty"`
}

func (r *CreateConceptRequest) Validate() error {
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

type ConceptResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Prerequisites []string `json:"prerequisites"`
}

func toConceptResponse(c *concept.Concept) ConceptResponse {
	prereqs := c.Prerequisites
	if prereqs == nil {
		prereqs = []string{}
	}
	return ConceptResponse{
		ID:            c.ID,
		Name:          c.Name,
		Prerequisites: prereqs,
	}
}

// ── Handlers ────────────────────────────────────────────────────────────────

// createConcept adds a concept to the curriculum. Prerequisites must
// reference existing concepts and keep the relation acyclic.
func (h *Handler) createConcept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateConceptRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	existing, err := h.store.ListConcepts(ctx)
	if err != nil {
		h.logger.Error("failed to load concepts", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load concepts")
		return
	}

	known := make(map[string]bool, len(existing))
	graph := make(map[string][]string, len(existing))
	for _, c := range existing {
		known[c.ID] = true
		graph[c.ID] = c.Prerequisites
	}
	for _, prereq := range req.Prerequisites {
		if !known[prereq] {
			respondError(w, http.StatusBadRequest, concept.ErrUnknownConcept.Error()+": "+prereq)
			return
		}
	}

	c, err := concept.New(req.Name, req.Prerequisites)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := concept.ValidatePrerequisites(c.ID, c.Prerequisites, graph); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.SaveConcept(ctx, c); err != nil {
		h.logger.Error("failed to save concept", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to save concept")
		return
	}

	respondJSON(w, http.StatusCreated, toConceptResponse(c))
}

// listConcepts returns the whole curriculum.
func (h *Handler) listConcepts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	concepts, err := h.store.ListConcepts(ctx)
	if err != nil {
		h.logger.Error("failed to load concepts", "error", err)
		respondError(w, http.StatusInternalServerError, "failed to load concepts")
		return
	}

	response := make([]ConceptResponse, len(concepts))
	for i, c := range concepts {
		response[i] = toConceptResponse(c)
	}
	respondJSON(w, http.StatusOK, response)
}

// getConcept returns a single concept.
func (h *Handler) getConcept(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	conceptID := r.PathValue("conceptID")

	c, err := h.store.GetConcept(ctx, conceptID)
	if h.handleStoreError(w, err, "concept") {
		return
	}

	respondJSON(w, http.StatusOK, toConceptResponse(c))
}
