package api

import (
	"net/http"

	"github.com/gorilla/mux"
	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/models"
)

// handleGetWatchlist handles GET /api/watchlists/:account
func (s *Server) handleGetWatchlist(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account := vars["account"]

	if account == "" {
		respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "Account required", nil)
		return
	}

	watchlist, err := s.walletService.Watchlist(r.Context(), account)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, watchlist)
}

// handleAddWatchlistToken handles POST /api/watchlists/:account/tokens
func (s *Server) handleAddWatchlistToken(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account := vars["account"]

	var token models.Token
	if err := parseJSONBody(r, &token); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "Invalid request body", nil)
		return
	}

	watchlist, err := s.walletService.AddToWatchlist(r.Context(), account, token)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, watchlist)
}

// handleRemoveWatchlistToken handles DELETE /api/watchlists/:account/tokens/:address
func (s *Server) handleRemoveWatchlistToken(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account := vars["account"]
	address := vars["address"]

	watchlist, err := s.walletService.RemoveFromWatchlist(r.Context(), account, address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, watchlist)
}
