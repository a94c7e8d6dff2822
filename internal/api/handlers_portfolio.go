package api

import (
	"net/http"

	"github.com/gorilla/mux"
	apperrors "github.com/swipe-trader/internal/errors"
)

// handleGetPortfolio handles GET /api/portfolios/:account - Get tracked holdings
func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account := vars["account"]

	if account == "" {
		respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "Account required", nil)
		return
	}

	portfolio, err := s.walletService.Portfolio(r.Context(), account)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, portfolio)
}

// handleGetPortfolioValue handles GET /api/portfolios/:account/value - Aggregate valuation
func (s *Server) handleGetPortfolioValue(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account := vars["account"]

	if account == "" {
		respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "Account required", nil)
		return
	}

	value, err := s.walletService.Value(r.Context(), account)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, value)
}
