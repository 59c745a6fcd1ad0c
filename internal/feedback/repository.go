// Package feedback records end-user submissions against projects.
package feedback

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unified-feedback/unified/backend/internal/database"
	"github.com/unified-feedback/unified/backend/internal/form"
)

var ErrNotFound = errors.New("feedback not found")

// Repository persists submissions. Records are never updated.
type Repository interface {
	Insert(ctx context.Context, f *form.Feedback) error
	Get(ctx context.Context, id string) (*form.Feedback, error)
	// ListByProject returns the project's records, newest first.
	ListByProject(ctx context.Context, projectID string) ([]*form.Feedback, error)
	DeleteByProject(ctx context.Context, projectID string) (int, error)
}

type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(ctx context.Context, col *mongo.Collection) (*MongoRepository, error) {
	err := database.EnsureIndexes(ctx, col,
		mongo.IndexModel{Keys: bson.D{{Key: "projectId", Value: 1}, {Key: "timestamp", Value: -1}}},
	)
	if err != nil {
		return nil, err
	}
	return &MongoRepository{col: col}, nil
}

func (m *MongoRepository) Insert(ctx context.Context, f *form.Feedback) error {
	_, err := m.col.InsertOne(ctx, f)
	return err
}

func (m *MongoRepository) Get(ctx context.Context, id string) (*form.Feedback, error) {
	var f form.Feedback
	if err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&f); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (m *MongoRepository) ListByProject(ctx context.Context, projectID string) ([]*form.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := m.col.Find(ctx, bson.M{"projectId": projectID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*form.Feedback{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MongoRepository) DeleteByProject(ctx context.Context, projectID string) (int, error) {
	res, err := m.col.DeleteMany(ctx, bson.M{"projectId": projectID})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}
