package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/tallyhq/tally/internal/common"
	"github.com/tallyhq/tally/internal/model"
)

const minPasswordLength = 6

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if details := validateRegistration(&req); len(details) > 0 {
		writeValidationError(w, "validation failed", details)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to process password")
		return
	}

	user := &model.User{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, common.ErrDuplicateEntry) {
			writeError(w, http.StatusBadRequest, "email is already registered")
			return
		}
		writeStorageError(w, err, "failed to create user")
		return
	}

	session, err := s.store.CreateSession(r.Context(), user.ID, sessionTTL)
	if err != nil {
		writeStorageError(w, err, "failed to create session")
		return
	}
	setAuthCookie(w, session.Token)

	writeSuccess(w, http.StatusCreated, user, "registration successful")
}

func validateRegistration(req *registerRequest) map[string]string {
	details := make(map[string]string)
	if _, err := mail.ParseAddress(req.Email); err != nil {
		details["email"] = "a valid email address is required"
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		details["password"] = "password must be at least 6 characters"
	}
	return details
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeStorageError(w, err, "failed to look up user")
		return
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	session, err := s.store.CreateSession(r.Context(), user.ID, sessionTTL)
	if err != nil {
		writeStorageError(w, err, "failed to create session")
		return
	}
	setAuthCookie(w, session.Token)

	writeSuccess(w, http.StatusOK, user, "login successful")
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := sessionToken(r); token != "" {
		if err := s.store.DeleteSession(r.Context(), token); err != nil {
			writeStorageError(w, err, "failed to delete session")
			return
		}
	}
	clearAuthCookie(w)
	writeSuccess(w, http.StatusOK, nil, "logout successful")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	user, err := s.store.GetUserByID(r.Context(), userID)
	if err != nil {
		writeStorageError(w, err, "failed to load user")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "not logged in")
		return
	}
	writeSuccess(w, http.StatusOK, user, "")
}
