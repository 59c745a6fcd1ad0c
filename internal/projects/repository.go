// Package projects stores form definitions and enforces ownership on them.
package projects

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unified-feedback/unified/backend/internal/database"
	"github.com/unified-feedback/unified/backend/internal/form"
)

var ErrNotFound = errors.New("project not found")

// Repository persists projects. Stored snapshots are returned as copies.
type Repository interface {
	Insert(ctx context.Context, p *form.Project) error
	Get(ctx context.Context, id string) (*form.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*form.Project, error)
	Replace(ctx context.Context, p *form.Project) error
	Delete(ctx context.Context, id string) error
}

// MongoRepository implements Repository on a "projects" collection.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(ctx context.Context, col *mongo.Collection) (*MongoRepository, error) {
	err := database.EnsureIndexes(ctx, col,
		mongo.IndexModel{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: 1}}},
	)
	if err != nil {
		return nil, err
	}
	return &MongoRepository{col: col}, nil
}

func (m *MongoRepository) Insert(ctx context.Context, p *form.Project) error {
	_, err := m.col.InsertOne(ctx, p)
	return err
}

func (m *MongoRepository) Get(ctx context.Context, id string) (*form.Project, error) {
	var p form.Project
	err := m.col.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (m *MongoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*form.Project, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cur, err := m.col.Find(ctx, bson.M{"userId": ownerID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*form.Project{}
	for cur.Next(ctx) {
		var p form.Project
		if err := cur.Decode(&p); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, cur.Err()
}

func (m *MongoRepository) Replace(ctx context.Context, p *form.Project) error {
	res, err := m.col.ReplaceOne(ctx, bson.M{"_id": p.ID}, p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (m *MongoRepository) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
