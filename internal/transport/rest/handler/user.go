package handler

import (
	"codequiz/internal/service"
	"codequiz/internal/transport/rest/middleware"
	"net/http"
	"strconv"
)

// UserHandler handles stats, history and leaderboard endpoints
type UserHandler struct {
	statsSvc *service.UserStatsService
}

// NewUserHandler creates a new user handler
func NewUserHandler(statsSvc *service.UserStatsService) *UserHandler {
	return &UserHandler{statsSvc: statsSvc}
}

// Me handles GET /v1/users/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	stats, err := h.statsSvc.GetStats(r.Context(), user.UID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	rank, err := h.statsSvc.GetRank(r.Context(), user.UID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":  user,
		"stats": stats,
		"rank":  rank,
	})
}

// History handles GET /v1/users/me/history
func (h *UserHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	games, err := h.statsSvc.History(r.Context(), user.UID, int64(queryInt(r, "limit", 20)))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

// Leaderboard handles GET /v1/leaderboard
func (h *UserHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.statsSvc.GetLeaderboard(r.Context(), queryInt(r, "top", 20))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

func queryInt(r *http.Request, key string, def int) int {
	if s := r.URL.Query().Get(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}
