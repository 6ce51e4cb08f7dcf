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

// ArchiveRepo keeps resolved games for history and result lookups
type ArchiveRepo interface {
	Save(ctx context.Context, archived *model.ArchivedGame) error
	GetByID(ctx context.Context, id string) (*model.ArchivedGame, error)
	ListByUser(ctx context.Context, uid string, limit int64) ([]*model.ArchivedGame, error)
}

type archiveRepo struct {
	collection *mongo.Collection
}

// NewArchiveRepo creates a new archive repository
func NewArchiveRepo(db *mongo.Database) ArchiveRepo {
	return &archiveRepo{
		collection: db.Collection("archived_games"),
	}
}

func (r *archiveRepo) Save(ctx context.Context, archived *model.ArchivedGame) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": archived.ID}, archived, opts)
	return err
}

func (r *archiveRepo) GetByID(ctx context.Context, id string) (*model.ArchivedGame, error) {
	var archived model.ArchivedGame
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&archived)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("archived game %s: %w", id, model.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &archived, nil
}

// ListByUser returns the most recent archived games a user sat in
func (r *archiveRepo) ListByUser(ctx context.Context, uid string, limit int64) ([]*model.ArchivedGame, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"lobby.founder.uid": uid},
		bson.M{"lobby.member.uid": uid},
	}}
	opts := options.Find().SetSort(bson.D{{Key: "archivedAt", Value: -1}}).SetLimit(limit)
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	games := []*model.ArchivedGame{}
	if err := cursor.All(ctx, &games); err != nil {
		return nil, err
	}
	return games, nil
}
