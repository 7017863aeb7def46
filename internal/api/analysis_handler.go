package api

import "net/http"

type SweepResponse struct {
	Pairs       int `json:"pairs"`
	Failed      int `json:"failed"`
	NewInsights int `json:"new_insights"`
}

// runSweep re-analyzes every pair with evidence. The periodic sweep
// calls the same service path; this endpoint triggers it on demand.
func (h *Handler) runSweep(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := h.analysis.Sweep(ctx, h.sweepWorkers)
	if err != nil {
		h.logger.Error("sweep failed", "error", err)
		respondError(w, http.StatusInternalServerError, "sweep failed")
		return
	}

	respondJSON(w, http.StatusOK, SweepResponse{
		Pairs:       stats.Pairs,
		Failed:      stats.Failed,
		NewInsights: stats.Insights,
	})
}
