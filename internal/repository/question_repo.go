package repository

import (
	"codequiz/internal/model"
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// QuestionRepo reads the question pool
type QuestionRepo interface {
	GetByCategory(ctx context.Context, category string) ([]model.Question, error)
	Categories(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, questions []model.PoolQuestion) error
}

type questionRepo struct {
	collection *mongo.Collection
}

// NewQuestionRepo creates a new question repository
func NewQuestionRepo(db *mongo.Database) QuestionRepo {
	return &questionRepo{
		collection: db.Collection("questions"),
	}
}

// GetByCategory loads every pool question of a category, converted to
// gameplay form once here
func (r *questionRepo) GetByCategory(ctx context.Context, category string) ([]model.Question, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"category": category})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var pool []model.PoolQuestion
	if err = cursor.All(ctx, &pool); err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(pool))
	for i := range pool {
		questions = append(questions, pool[i].ToQuestion())
	}
	return questions, nil
}

func (r *questionRepo) Categories(ctx context.Context) ([]string, error) {
	values, err := r.collection.Distinct(ctx, "category", bson.M{})
	if err != nil {
		return nil, err
	}
	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	return categories, nil
}

// Upsert writes pool questions keyed by id
func (r *questionRepo) Upsert(ctx context.Context, questions []model.PoolQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	models := make([]mongo.WriteModel, 0, len(questions))
	for i := range questions {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": questions[i].ID}).
			SetReplacement(questions[i]).
			SetUpsert(true))
	}
	_, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	return err
}
