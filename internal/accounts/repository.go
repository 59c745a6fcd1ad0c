package accounts

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/unified-feedback/unified/backend/internal/database"
)

// Repository defines persistence operations for accounts
type Repository interface {
	// CreateIfAbsent stores a unless an account with the same UID exists, and
	// returns whichever account is stored afterwards. An email already held
	// by another UID yields ErrEmailTaken.
	CreateIfAbsent(ctx context.Context, a *Account) (*Account, bool, error)
	GetByUID(ctx context.Context, uid string) (*Account, error)
	DeleteByUID(ctx context.Context, uid string) error
}

// MongoRepository implements Repository using MongoDB
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a new repository for the given collection
func NewMongoRepository(ctx context.Context, col *mongo.Collection) (*MongoRepository, error) {
	err := database.EnsureIndexes(ctx, col,
		mongo.IndexModel{Keys: bson.D{{Key: "uid", Value: 1}}, Options: options.Index().SetUnique(true)},
		mongo.IndexModel{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	)
	if err != nil {
		return nil, err
	}
	return &MongoRepository{col: col}, nil
}

func (r *MongoRepository) CreateIfAbsent(ctx context.Context, a *Account) (*Account, bool, error) {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	filter := bson.M{"uid": a.UID}
	update := bson.M{"$setOnInsert": bson.M{
		"_id":         a.ID,
		"email":       a.Email,
		"displayName": a.DisplayName,
		"photoURL":    a.PhotoURL,
		"createdAt":   a.CreatedAt,
	}}
	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		// Either a concurrent first sign-in of the same UID won the upsert,
		// or the email belongs to someone else.
		stored, gerr := r.GetByUID(ctx, a.UID)
		if errors.Is(gerr, ErrNotFound) {
			return nil, false, ErrEmailTaken
		}
		if gerr != nil {
			return nil, false, gerr
		}
		return stored, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	stored, err := r.GetByUID(ctx, a.UID)
	if err != nil {
		return nil, false, err
	}
	return stored, res.UpsertedCount > 0, nil
}

func (r *MongoRepository) GetByUID(ctx context.Context, uid string) (*Account, error) {
	var a Account
	if err := r.col.FindOne(ctx, bson.M{"uid": uid}).Decode(&a); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *MongoRepository) DeleteByUID(ctx context.Context, uid string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"uid": uid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
