package repository

import (
	"codequiz/internal/model"
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepo stores per-user aggregate stats
type UserRepo interface {
	EnsureUser(ctx context.Context, user *model.User) error
	GetByUID(ctx context.Context, uid string) (*model.UserStats, error)
	ApplyGameResult(ctx context.Context, user *model.User, points int, won bool) (*model.UserStats, error)
}

type userRepo struct {
	collection *mongo.Collection
}

// NewUserRepo creates a new user repository
func NewUserRepo(db *mongo.Database) UserRepo {
	return &userRepo{
		collection: db.Collection("users"),
	}
}

// EnsureUser creates the stats document on first login and refreshes the display name
func (r *userRepo) EnsureUser(ctx context.Context, user *model.User) error {
	update := bson.M{
		"$set": bson.M{"displayName": user.DisplayName},
		"$setOnInsert": bson.M{
			"gamesPlayed": 0,
			"wins":        0,
			"winRatio":    0.0,
			"totalPoints": 0,
		},
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.UID}, update, options.Update().SetUpsert(true))
	return err
}

func (r *userRepo) GetByUID(ctx context.Context, uid string) (*model.UserStats, error) {
	var stats model.UserStats
	err := r.collection.FindOne(ctx, bson.M{"_id": uid}).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %s: %w", uid, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// ApplyGameResult counts one played game and recomputes winRatio in the same update
func (r *userRepo) ApplyGameResult(ctx context.Context, user *model.User, points int, won bool) (*model.UserStats, error) {
	winInc := 0
	if won {
		winInc = 1
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "displayName", Value: user.DisplayName},
			{Key: "gamesPlayed", Value: incOrInit("$gamesPlayed", 1)},
			{Key: "wins", Value: incOrInit("$wins", winInc)},
			{Key: "totalPoints", Value: incOrInit("$totalPoints", points)},
		}}},
		{{Key: "$set", Value: bson.D{
			{Key: "winRatio", Value: bson.D{{Key: "$divide", Value: bson.A{"$wins", "$gamesPlayed"}}}},
		}}},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var stats model.UserStats
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": user.UID}, update, opts).Decode(&stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func incOrInit(field string, by int) bson.D {
	return bson.D{{Key: "$add", Value: bson.A{
		bson.D{{Key: "$ifNull", Value: bson.A{field, 0}}},
		by,
	}}}
}
