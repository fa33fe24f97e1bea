package http

import (
	"net/http"

	"github.com/Seldir193/coderr-backend/internal/review"
)

type StatsHandler struct {
	reviews review.Service
}

func NewStatsHandler(reviews review.Service) *StatsHandler {
	return &StatsHandler{reviews: reviews}
}

// BaseInfo serves the public platform figures shown on the landing page.
func (h *StatsHandler) BaseInfo(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reviews.BaseInfo(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
