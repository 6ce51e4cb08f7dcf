package repository

import (
	"codequiz/internal/model"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// GameRepo handles MongoDB operations for live game records
type GameRepo interface {
	Create(ctx context.Context, game *model.Game) error
	GetByID(ctx context.Context, id string) (*model.Game, error)
	UpdateFields(ctx context.Context, id string, fields bson.M) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*model.Game, error)
}

type gameRepo struct {
	collection *mongo.Collection
}

// NewGameRepo creates a new game repository
func NewGameRepo(db *mongo.Database) GameRepo {
	return &gameRepo{
		collection: db.Collection("games"),
	}
}

func (r *gameRepo) Create(ctx context.Context, game *model.Game) error {
	_, err := r.collection.InsertOne(ctx, game)
	return err
}

// GetByID returns model.ErrNotFound when the record does not exist
func (r *gameRepo) GetByID(ctx context.Context, id string) (*model.Game, error) {
	var game model.Game
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&game)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("game %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &game, nil
}

// UpdateFields applies a $set of dotted field paths to one record
func (r *gameRepo) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("game %s: %w", id, model.ErrNotFound)
	}
	return nil
}

func (r *gameRepo) Delete(ctx context.Context, id string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// List returns lobbies that have not started yet
func (r *gameRepo) List(ctx context.Context) ([]*model.Game, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"gameInProgress": false})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	games := []*model.Game{}
	if err := cursor.All(ctx, &games); err != nil {
		return nil, err
	}
	return games, nil
}
