package handler

import (
	"codequiz/internal/service"
	"codequiz/internal/transport/rest/middleware"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// GameHandler handles lobby and game record endpoints
type GameHandler struct {
	lobby    *service.LobbyCoordinator
	store    *service.GameSessionStore
	resolver *service.GameResolver
}

// NewGameHandler creates a new game handler
func NewGameHandler(lobby *service.LobbyCoordinator, store *service.GameSessionStore, resolver *service.GameResolver) *GameHandler {
	return &GameHandler{
		lobby:    lobby,
		store:    store,
		resolver: resolver,
	}
}

// CreateGameRequest is the request body for creating a game. Zero values
// use the server defaults.
type CreateGameRequest struct {
	Category         string `json:"category"`
	QuestionQuantity int    `json:"questionQuantity,omitempty"`
	QuestionDuration int    `json:"questionDuration,omitempty"`
}

// ReadyRequest is the request body for toggling readiness
type ReadyRequest struct {
	Ready bool `json:"ready"`
}

// List handles GET /v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	games, err := h.store.ListGames(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"games": games})
}

// Create handles POST /v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := h.lobby.CreateGame(r.Context(), user, req.Category, req.QuestionQuantity, req.QuestionDuration)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, game)
}

// Get handles GET /v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	game, err := h.store.GetGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game":  game,
		"state": h.lobby.LobbyState(game),
	})
}

// Join handles POST /v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	game, err := h.lobby.JoinGame(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

// LeaveLobby handles POST /v1/games/{id}/lobby/leave
func (h *GameHandler) LeaveLobby(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := h.lobby.LeaveLobby(r.Context(), mux.Vars(r)["id"], user); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Ready handles PUT /v1/games/{id}/ready
func (h *GameHandler) Ready(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ReadyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	game, err := h.lobby.SetReady(r.Context(), mux.Vars(r)["id"], user, req.Ready)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game":  game,
		"state": h.lobby.LobbyState(game),
	})
}

// Start handles POST /v1/games/{id}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	game, err := h.lobby.Start(r.Context(), mux.Vars(r)["id"], user)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

// Result handles GET /v1/games/{id}/result
func (h *GameHandler) Result(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.resolver.Outcome(r.Context(), mux.Vars(r)["id"], user.UID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
