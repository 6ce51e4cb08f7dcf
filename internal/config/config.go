package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the server settings read from the environment
type Config struct {
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DB" envDefault:"codequiz"`
	RedisURI      string `env:"REDIS_URI" envDefault:"redis://localhost:6379/0"`
	Port          string `env:"PORT" envDefault:"8080"`

	JWTSecret string        `env:"JWT_SECRET" envDefault:"super-secret-key-change-in-production"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"720h"`

	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*"`
	CORSAllowedMethods string `env:"CORS_ALLOWED_METHODS" envDefault:"GET, POST, PUT, DELETE, OPTIONS"`
	CORSAllowedHeaders string `env:"CORS_ALLOWED_HEADERS" envDefault:"Content-Type, Authorization"`

	Game GameDefaults `envPrefix:"DEFAULT_"`

	ResolveLockTTL  time.Duration `env:"RESOLVE_LOCK_TTL" envDefault:"24h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
}

// GameDefaults apply when a create request leaves a value out
type GameDefaults struct {
	QuestionQuantity int `env:"QUESTION_QUANTITY" envDefault:"10"`
	QuestionDuration int `env:"QUESTION_DURATION" envDefault:"20"` // seconds
}

// Load parses the environment into a Config
func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.Game.QuestionQuantity <= 0 || cfg.Game.QuestionDuration <= 0 {
		return nil, fmt.Errorf("default question quantity and duration must be positive")
	}
	return &cfg, nil
}
