package summary

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store keeps the latest summary per project.
type Store interface {
	Save(ctx context.Context, r *Record) error
	// Load returns nil when the project has no stored summary.
	Load(ctx context.Context, projectID string) (*Record, error)
	DeleteByProject(ctx context.Context, projectID string) (int, error)
}

// MongoStore keeps records in a "summaries" collection keyed by project id.
type MongoStore struct {
	col *mongo.Collection
}

func NewMongoStore(col *mongo.Collection) *MongoStore { return &MongoStore{col: col} }

func (m *MongoStore) Save(ctx context.Context, r *Record) error {
	filter := bson.M{"_id": r.ProjectID}
	opts := options.Replace().SetUpsert(true)
	if _, err := m.col.ReplaceOne(ctx, filter, r, opts); err != nil {
		return err
	}
	return nil
}

func (m *MongoStore) Load(ctx context.Context, projectID string) (*Record, error) {
	var r Record
	if err := m.col.FindOne(ctx, bson.M{"_id": projectID}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &r, nil
}

func (m *MongoStore) DeleteByProject(ctx context.Context, projectID string) (int, error) {
	res, err := m.col.DeleteOne(ctx, bson.M{"_id": projectID})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{records: map[string]Record{}} }

func (m *MemoryStore) Save(_ context.Context, r *Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *r
	c.Summary.KeyFeatures = append([]string{}, r.Summary.KeyFeatures...)
	m.records[r.ProjectID] = c
	return nil
}

func (m *MemoryStore) Load(_ context.Context, projectID string) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[projectID]
	if !ok {
		return nil, nil
	}
	r.Summary.KeyFeatures = append([]string{}, r.Summary.KeyFeatures...)
	return &r, nil
}

func (m *MemoryStore) DeleteByProject(_ context.Context, projectID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[projectID]; !ok {
		return 0, nil
	}
	delete(m.records, projectID)
	return 1, nil
}
