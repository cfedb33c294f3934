package server

import (
	"net/http"
	"time"
)

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	query := r.URL.Query()

	var start, end *time.Time
	if startParam := query.Get("startDate"); startParam != "" {
		t, err := parseRequestDate(startParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid startDate")
			return
		}
		start = &t
	}
	if endParam := query.Get("endDate"); endParam != "" {
		t, err := parseRequestDate(endParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid endDate")
			return
		}
		end = &t
	}

	data, err := s.aggregator.GetStatistics(r.Context(), userID, start, end)
	if err != nil {
		writeStorageError(w, err, "failed to compute statistics")
		return
	}
	writeSuccess(w, http.StatusOK, data, "")
}
