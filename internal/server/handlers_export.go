package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tallyhq/tally/internal/export"
	"github.com/tallyhq/tally/internal/service"
)

type exportRequest struct {
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	CategoryID string `json:"categoryId"`
	Format     string `json:"format"`
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req exportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Format == "" {
		req.Format = "csv"
	}
	if req.Format != "csv" {
		writeError(w, http.StatusBadRequest, "unsupported export format")
		return
	}

	filter := service.TransactionFilter{CategoryID: req.CategoryID}
	if req.StartDate != "" {
		start, err := parseRequestDate(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid startDate")
			return
		}
		filter.StartDate = &start
	}
	if req.EndDate != "" {
		end, err := parseRequestDate(req.EndDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid endDate")
			return
		}
		filter.EndDate = &end
	}

	transactions, err := s.store.GetTransactions(r.Context(), userID, filter)
	if err != nil {
		writeStorageError(w, err, "failed to load transactions")
		return
	}
	if len(transactions) == 0 {
		writeSuccess(w, http.StatusOK, nil, "no matching transactions")
		return
	}

	filename := export.Filename(time.Now())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.NewCSVExporter().Export(w, transactions); err != nil {
		// Headers are already sent, so only log.
		slog.Error("failed to stream export", "error", err)
	}
}
