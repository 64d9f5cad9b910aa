package handler

import (
	"net/http"

	"bloxstake-trading-api/internal/service"
	"bloxstake-trading-api/pkg/response"
)

// StatsHandler serves the public stats endpoint.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Stats handles GET /api/mm2/MurderMystery2/Stats
func (h *StatsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stats.Snapshot(r.Context())
	if err != nil {
		response.Error(w, err)
		return
	}
	response.OK(w, snapshot)
}
