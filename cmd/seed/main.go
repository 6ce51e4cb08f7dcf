package main

import (
	"codequiz/internal/config"
	"codequiz/internal/model"
	"codequiz/internal/repository"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

//go:embed questions.json
var questionsJSON []byte

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	var pool []model.PoolQuestion
	if err := json.Unmarshal(questionsJSON, &pool); err != nil {
		log.Fatalf("Failed to parse question pool: %v", err)
	}

	questions := repository.NewQuestionRepo(client.Database(cfg.MongoDatabase))
	if err := questions.Upsert(ctx, pool); err != nil {
		log.Fatalf("Failed to upsert questions: %v", err)
	}

	categories, err := questions.Categories(ctx)
	if err != nil {
		log.Fatalf("Failed to list categories: %v", err)
	}

	fmt.Printf("Successfully seeded %d questions in categories %v\n", len(pool), categories)
}
