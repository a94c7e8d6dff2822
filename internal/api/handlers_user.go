package api

import (
	"net/http"

	"github.com/gorilla/mux"
	apperrors "github.com/swipe-trader/internal/errors"
)

// handleGetUser handles GET /api/users/:account - Get or lazily create a user
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account := vars["account"]

	if account == "" {
		respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "Account required", nil)
		return
	}

	user, err := s.walletService.User(r.Context(), account)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}

// handleUpdateDefaultAmount handles PUT /api/users/:account/default-amount
func (s *Server) handleUpdateDefaultAmount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account := vars["account"]

	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := parseJSONBody(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := s.walletService.UpdateDefaultAmount(r.Context(), account, req.Amount)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, user)
}
