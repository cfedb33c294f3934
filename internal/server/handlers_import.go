package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/tallyhq/tally/internal/importer"
	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

// maxImportSize caps uploaded bill files at 20 MiB.
const maxImportSize = 20 << 20

// maxImportErrors bounds the error detail list in the import response.
const maxImportErrors = 20

type importResult struct {
	Imported int      `json:"imported"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// handleImport accepts a multipart bill upload, parses it with the detected
// (or explicitly requested) importer, stores the transactions, and runs the
// classifier over the user's transactions.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart upload")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()

	if formatParam := r.FormValue("format"); formatParam != "" && formatParam != "auto" {
		var billImporter service.BillImporter
		billImporter, err = importer.ForFormat(importer.Format(formatParam))
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown bill format")
			return
		}
		transactions, parseErr := billImporter.Parse(r.Context(), file)
		if parseErr != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse bill: %v", parseErr))
			return
		}
		s.finishImport(w, r, userID, transactions)
		return
	}

	detected, format, replay, err := importer.Detect(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unrecognized bill format")
		return
	}
	slog.Info("detected bill format", "format", format, "user_id", userID)

	transactions, err := detected.Parse(r.Context(), replay)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("failed to parse bill: %v", err))
		return
	}
	s.finishImport(w, r, userID, transactions)
}

// finishImport stores parsed transactions for the user and classifies the
// user's transactions afterwards. Row-level failures are collected, not
// fatal.
func (s *Server) finishImport(w http.ResponseWriter, r *http.Request, userID string, transactions []model.Transaction) {
	result := importResult{}
	for i := range transactions {
		txn := transactions[i]
		txn.UserID = userID

		if err := s.store.CreateTransaction(r.Context(), &txn); err != nil {
			result.Failed++
			if len(result.Errors) < maxImportErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", i+1, err))
			}
			continue
		}
		result.Imported++
	}

	if result.Imported > 0 {
		if _, err := s.classifier.ClassifyAll(r.Context(), userID); err != nil {
			slog.Warn("post-import classification failed", "user_id", userID, "error", err)
		}
	}

	message := fmt.Sprintf("imported %d transactions", result.Imported)
	writeSuccess(w, http.StatusOK, result, message)
}
