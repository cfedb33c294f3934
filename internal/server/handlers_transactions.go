package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/tallyhq/tally/internal/model"
	"github.com/tallyhq/tally/internal/service"
)

type transactionRequest struct {
	Type        model.TransactionType `json:"type"`
	Amount      float64               `json:"amount"`
	CategoryID  string                `json:"categoryId"`
	Description string                `json:"description"`
	Date        string                `json:"date"`
}

func (req *transactionRequest) validate() (time.Time, map[string]string) {
	details := make(map[string]string)
	if !req.Type.Valid() {
		details["type"] = "type must be income, expense, or neutral"
	}
	if req.Amount <= 0 {
		details["amount"] = "amount must be greater than zero"
	}
	date, err := parseRequestDate(req.Date)
	if err != nil {
		details["date"] = "date must be an ISO date"
	}
	return date, details
}

func parseRequestDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", value)
}

// checkCategoryUse verifies the category exists, belongs to the user, and
// matches the transaction type. It writes the error response itself and
// reports whether the caller may proceed.
func (s *Server) checkCategoryUse(w http.ResponseWriter, r *http.Request, userID, categoryID string, txnType model.TransactionType) bool {
	category, err := s.store.GetCategoryByID(r.Context(), categoryID)
	if err != nil {
		writeStorageError(w, err, "failed to load category")
		return false
	}
	if category == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return false
	}
	if category.UserID != userID {
		writeError(w, http.StatusForbidden, "cannot use this category")
		return false
	}
	if string(category.Type) != string(txnType) {
		writeError(w, http.StatusBadRequest, "category type does not match transaction type")
		return false
	}
	return true
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	query := r.URL.Query()

	filter := service.TransactionFilter{
		CategoryID: query.Get("categoryId"),
	}
	if typeParam := query.Get("type"); typeParam != "" {
		txnType := model.TransactionType(typeParam)
		if !txnType.Valid() {
			writeError(w, http.StatusBadRequest, "invalid transaction type")
			return
		}
		filter.Type = txnType
	}
	if startParam := query.Get("startDate"); startParam != "" {
		start, err := parseRequestDate(startParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid startDate")
			return
		}
		filter.StartDate = &start
	}
	if endParam := query.Get("endDate"); endParam != "" {
		end, err := parseRequestDate(endParam)
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
	writeSuccess(w, http.StatusOK, transactions, "")
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, details := req.validate()
	if len(details) > 0 {
		writeValidationError(w, "validation failed", details)
		return
	}

	txn := &model.Transaction{
		UserID:      userID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Date:        date,
	}
	if req.CategoryID != "" {
		if !s.checkCategoryUse(w, r, userID, req.CategoryID, req.Type) {
			return
		}
		txn.CategoryID = &req.CategoryID
	}

	if err := s.store.CreateTransaction(r.Context(), txn); err != nil {
		writeStorageError(w, err, "failed to create transaction")
		return
	}

	created, err := s.store.GetTransactionByID(r.Context(), txn.ID)
	if err != nil || created == nil {
		writeSuccess(w, http.StatusCreated, txn, "transaction created")
		return
	}
	writeSuccess(w, http.StatusCreated, created, "transaction created")
}

// loadOwnedTransaction fetches a transaction and enforces ownership, writing
// the error response when the caller may not proceed.
func (s *Server) loadOwnedTransaction(w http.ResponseWriter, r *http.Request, userID, id string) *model.Transaction {
	txn, err := s.store.GetTransactionByID(r.Context(), id)
	if err != nil {
		writeStorageError(w, err, "failed to load transaction")
		return nil
	}
	if txn == nil {
		writeError(w, http.StatusNotFound, "transaction not found")
		return nil
	}
	if txn.UserID != userID {
		writeError(w, http.StatusForbidden, "cannot access this transaction")
		return nil
	}
	return txn
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	txn := s.loadOwnedTransaction(w, r, userID, mux.Vars(r)["id"])
	if txn == nil {
		return
	}
	writeSuccess(w, http.StatusOK, txn, "")
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, details := req.validate()
	if len(details) > 0 {
		writeValidationError(w, "validation failed", details)
		return
	}

	txn := s.loadOwnedTransaction(w, r, userID, mux.Vars(r)["id"])
	if txn == nil {
		return
	}

	txn.Type = req.Type
	txn.Amount = req.Amount
	txn.Description = req.Description
	txn.Date = date
	txn.CategoryID = nil
	if req.CategoryID != "" {
		if !s.checkCategoryUse(w, r, userID, req.CategoryID, req.Type) {
			return
		}
		txn.CategoryID = &req.CategoryID
	}

	if err := s.store.UpdateTransaction(r.Context(), txn); err != nil {
		writeStorageError(w, err, "failed to update transaction")
		return
	}

	updated, err := s.store.GetTransactionByID(r.Context(), txn.ID)
	if err != nil || updated == nil {
		writeSuccess(w, http.StatusOK, txn, "transaction updated")
		return
	}
	writeSuccess(w, http.StatusOK, updated, "transaction updated")
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	txn := s.loadOwnedTransaction(w, r, userID, mux.Vars(r)["id"])
	if txn == nil {
		return
	}

	if err := s.store.DeleteTransaction(r.Context(), txn.ID); err != nil {
		writeStorageError(w, err, "failed to delete transaction")
		return
	}
	writeSuccess(w, http.StatusOK, nil, "transaction deleted")
}

func (s *Server) handleAutoCategorize(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	updated, err := s.classifier.ClassifyAll(r.Context(), userID)
	if err != nil {
		writeStorageError(w, err, "classification failed")
		return
	}
	writeSuccess(w, http.StatusOK, map[string]int{"updated": updated}, "classification complete")
}
