package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/tallyhq/tally/internal/model"
)

type categoryRequest struct {
	Name  string             `json:"name"`
	Type  model.CategoryType `json:"type"`
	Icon  string             `json:"icon"`
	Color string             `json:"color"`
}

func validateCategoryRequest(req *categoryRequest) map[string]string {
	details := make(map[string]string)
	if strings.TrimSpace(req.Name) == "" {
		details["name"] = "category name is required"
	}
	if !req.Type.Valid() {
		details["type"] = "type must be income or expense"
	}
	return details
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var (
		categories []model.Category
		err        error
	)
	if typeParam := r.URL.Query().Get("type"); typeParam != "" {
		categoryType := model.CategoryType(typeParam)
		if !categoryType.Valid() {
			writeError(w, http.StatusBadRequest, "type must be income or expense")
			return
		}
		categories, err = s.store.GetCategoriesByType(r.Context(), userID, categoryType)
	} else {
		categories, err = s.store.GetCategories(r.Context(), userID)
	}
	if err != nil {
		writeStorageError(w, err, "failed to load categories")
		return
	}
	writeSuccess(w, http.StatusOK, categories, "")
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if details := validateCategoryRequest(&req); len(details) > 0 {
		writeValidationError(w, "validation failed", details)
		return
	}

	category := &model.Category{
		UserID: userID,
		Name:   strings.TrimSpace(req.Name),
		Type:   req.Type,
		Icon:   req.Icon,
		Color:  req.Color,
	}
	if err := s.store.CreateCategory(r.Context(), category); err != nil {
		writeStorageError(w, err, "a category with this name already exists")
		return
	}
	writeSuccess(w, http.StatusCreated, category, "category created")
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if details := validateCategoryRequest(&req); len(details) > 0 {
		writeValidationError(w, "validation failed", details)
		return
	}

	existing, err := s.store.GetCategoryByID(r.Context(), id)
	if err != nil {
		writeStorageError(w, err, "failed to load category")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	if existing.UserID != userID {
		writeError(w, http.StatusForbidden, "cannot modify this category")
		return
	}

	existing.Name = strings.TrimSpace(req.Name)
	existing.Type = req.Type
	existing.Icon = req.Icon
	existing.Color = req.Color

	if err := s.store.UpdateCategory(r.Context(), existing); err != nil {
		writeStorageError(w, err, "failed to update category")
		return
	}
	writeSuccess(w, http.StatusOK, existing, "category updated")
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())
	id := mux.Vars(r)["id"]

	query := r.URL.Query()
	policy := model.DeletePolicy(query.Get("action"))
	if policy == "" {
		policy = model.DeleteNullify
	}
	if !policy.Valid() {
		writeError(w, http.StatusBadRequest, "action must be nullify, move, or delete")
		return
	}

	existing, err := s.store.GetCategoryByID(r.Context(), id)
	if err != nil {
		writeStorageError(w, err, "failed to load category")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "category not found")
		return
	}
	if existing.UserID != userID {
		writeError(w, http.StatusForbidden, "cannot delete this category")
		return
	}

	targetCategoryID := query.Get("targetCategoryId")
	if policy == model.DeleteMove {
		if targetCategoryID == "" {
			writeError(w, http.StatusBadRequest, "targetCategoryId is required when moving transactions")
			return
		}
		target, err := s.store.GetCategoryByID(r.Context(), targetCategoryID)
		if err != nil {
			writeStorageError(w, err, "failed to load target category")
			return
		}
		if target == nil {
			writeError(w, http.StatusNotFound, "target category not found")
			return
		}
		if target.UserID != userID {
			writeError(w, http.StatusForbidden, "cannot use this target category")
			return
		}
		if target.Type != existing.Type {
			writeError(w, http.StatusBadRequest, "target category type does not match")
			return
		}
	}

	if err := s.store.DeleteCategory(r.Context(), id, policy, targetCategoryID); err != nil {
		writeStorageError(w, err, "failed to delete category")
		return
	}
	writeSuccess(w, http.StatusOK, nil, "category deleted")
}
