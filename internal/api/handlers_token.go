package api

import (
	"net/http"

	"github.com/gorilla/mux"
	apperrors "github.com/swipe-trader/internal/errors"
)

// handleTrendingTokens handles GET /api/tokens/trending - List the swipe deck
func (s *Server) handleTrendingTokens(w http.ResponseWriter, r *http.Request) {
	tokens := s.tokenService.Trending(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"count":  len(tokens),
	})
}

// handleRefreshTrending handles POST /api/tokens/trending/refresh - Drop
// the cached deck and fetch a fresh one
func (s *Server) handleRefreshTrending(w http.ResponseWriter, r *http.Request) {
	tokens := s.tokenService.RefreshTrending(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"tokens": tokens,
		"count":  len(tokens),
	})
}

// handleGetToken handles GET /api/tokens/:address - Look up one token
func (s *Server) handleGetToken(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]

	if address == "" {
		respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "Token address required", nil)
		return
	}

	token, err := s.tokenService.TokenByAddress(r.Context(), address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, token)
}
