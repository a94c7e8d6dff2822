package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	apperrors "github.com/swipe-trader/internal/errors"
	"github.com/swipe-trader/internal/service"
)

// handleExecuteTrade handles POST /api/trades - Execute one swipe trade
func (s *Server) handleExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var input service.TradeInput
	if err := parseJSONBody(r, &input); err != nil {
		respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "Invalid request body", nil)
		return
	}

	result, err := s.tradeService.Execute(r.Context(), &input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// handleGetActivities handles GET /api/activities/:account?limit=N - Recent trades
func (s *Server) handleGetActivities(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account := vars["account"]

	if account == "" {
		respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "Account required", nil)
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, apperrors.CodeInvalidInput, "limit must be a positive integer", nil)
			return
		}
		limit = parsed
	}

	activities, err := s.tradeService.Activities(r.Context(), account, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"activities": activities,
		"count":      len(activities),
	})
}
