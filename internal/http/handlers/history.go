package handlers

import (
	"net/http"
	"strconv"

	"tryon/internal/store"
)

// History handles GET /api/history: the caller's generation records, newest
// first. Answers 404 when no database is configured.
func (a *App) HistoryList(w http.ResponseWriter, r *http.Request) {
	if a.History == nil {
		a.error(w, http.StatusNotFound, "not_found", "history is not enabled")
		return
	}
	session := a.session(w, r)

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			a.error(w, http.StatusBadRequest, "invalid_request", "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := a.History.ListGenerations(r.Context(), session, limit)
	if err != nil {
		a.Logger.Error().Err(err).Str("session", session).Msg("list history")
		a.error(w, http.StatusInternalServerError, "internal_error", "cannot list history")
		return
	}
	if records == nil {
		records = []store.GenerationRecord{}
	}
	a.json(w, http.StatusOK, map[string]any{"generations": records})
}
