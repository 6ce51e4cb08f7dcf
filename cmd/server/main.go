package main

import (
	"codequiz/internal/cache"
	"codequiz/internal/config"
	"codequiz/internal/repository"
	"codequiz/internal/service"
	"codequiz/internal/transport/rest"
	"codequiz/internal/transport/ws"
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"
)

func main() {
	log.Println("started")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MongoDB connection
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	defer mongoClient.Disconnect(context.Background())

	// Ping MongoDB
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mongoClient.Ping(pingCtx, nil); err != nil {
		log.Fatal("Failed to ping MongoDB:", err)
	}
	log.Println("Connected to MongoDB")

	db := mongoClient.Database(cfg.MongoDatabase)

	// Redis connection
	redisOpts, err := redis.ParseURL(cfg.RedisURI)
	if err != nil {
		log.Fatal("Invalid REDIS_URI:", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	// Ping Redis
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatal("Failed to ping Redis:", err)
	}
	log.Println("Connected to Redis")

	// Initialize WebSocket hub
	wsHub := ws.NewHub()
	log.Println("WebSocket hub started")

	// Initialize repositories
	gameRepo := repository.NewGameRepo(db)
	questionRepo := repository.NewQuestionRepo(db)
	archiveRepo := repository.NewArchiveRepo(db)
	userRepo := repository.NewUserRepo(db)

	// Initialize caches
	gameFeed := cache.NewGameFeed(rdb)
	resolveLock := cache.NewResolveLock(rdb, cfg.ResolveLockTTL)
	leaderboard := cache.NewLeaderboardCache(rdb)

	// Initialize services (wsHub implements service.Broadcaster)
	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.TokenTTL, userRepo)
	store := service.NewGameSessionStore(gameRepo, questionRepo, archiveRepo, gameFeed)
	watcher := service.NewGameSessionWatcher(store)
	lobby := service.NewLobbyCoordinator(store, cfg.Game)
	statsSvc := service.NewUserStatsService(userRepo, archiveRepo, leaderboard)
	resolver := service.NewGameResolver(store, resolveLock, statsSvc, wsHub)
	quizSvc := service.NewQuizService(store, resolver, wsHub)

	// Create router with container
	container := &rest.Container{
		Config:           cfg,
		AuthService:      authSvc,
		GameStore:        store,
		GameWatcher:      watcher,
		LobbyCoordinator: lobby,
		QuizService:      quizSvc,
		GameResolver:     resolver,
		UserStatsService: statsSvc,
		WSHub:            wsHub,
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: rest.NewRouter(container),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on :%s", cfg.Port)
		log.Println("Endpoints:")
		log.Println("  POST /v1/auth/login")
		log.Println("  GET/POST /v1/games")
		log.Println("  POST /v1/games/{id}/join|start|quiz/start|leave")
		log.Println("  GET  /v1/games/{id}/result")
		log.Println("  GET  /v1/leaderboard")
		log.Println("  WS   /v1/ws/games")
		log.Println("  WS   /v1/ws/games/{id}")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		// Running quizzes are abandoned; their seats are marked as left
		return quizSvc.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal("Server error:", err)
	}
	log.Println("Server exited")
}
