package rest

import (
	"codequiz/internal/config"
	"codequiz/internal/service"
	"codequiz/internal/transport/rest/handler"
	"codequiz/internal/transport/rest/middleware"
	"codequiz/internal/transport/ws"
	"net/http"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	Config           *config.Config
	AuthService      *service.AuthService
	GameStore        *service.GameSessionStore
	GameWatcher      *service.GameSessionWatcher
	LobbyCoordinator *service.LobbyCoordinator
	QuizService      *service.QuizService
	GameResolver     *service.GameResolver
	UserStatsService *service.UserStatsService
	WSHub            *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	gameHandler := handler.NewGameHandler(c.LobbyCoordinator, c.GameStore, c.GameResolver)
	quizHandler := handler.NewQuizHandler(c.QuizService)
	userHandler := handler.NewUserHandler(c.UserStatsService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.GameWatcher, c.QuizService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware(c.Config))

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/leaderboard", userHandler.Leaderboard).Methods("GET", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/games", wsHandler.GamesWS).Methods("GET")
	v1.HandleFunc("/ws/games/{id}", wsHandler.GameWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Player routes (require auth)
	userRoutes := v1.NewRoute().Subrouter()
	userRoutes.Use(authMW.RequireUser)

	userRoutes.HandleFunc("/users/me", userHandler.Me).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/users/me/history", userHandler.History).Methods("GET", "OPTIONS")

	userRoutes.HandleFunc("/games", gameHandler.List).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/games", gameHandler.Create).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}", gameHandler.Get).Methods("GET", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/join", gameHandler.Join).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/lobby/leave", gameHandler.LeaveLobby).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/ready", gameHandler.Ready).Methods("PUT", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/start", gameHandler.Start).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/result", gameHandler.Result).Methods("GET", "OPTIONS")

	// Quiz routes
	userRoutes.HandleFunc("/games/{id}/quiz/start", quizHandler.Start).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/quiz/answers", quizHandler.Answer).Methods("POST", "OPTIONS")
	userRoutes.HandleFunc("/games/{id}/leave", quizHandler.Leave).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(cfg *config.Config) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", cfg.CORSAllowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", cfg.CORSAllowedMethods)
			w.Header().Set("Access-Control-Allow-Headers", cfg.CORSAllowedHeaders)

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
