package accounts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoCreateIfAbsentDuplicateKey(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	dup := mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}

	mt.Run("concurrent first sign-in returns the stored account", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateWriteErrorsResponse(dup),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
				{Key: "_id", Value: "acc-1"},
				{Key: "uid", Value: "uid-1"},
				{Key: "email", Value: "a@b.co"},
			}),
		)
		repo, err := NewMongoRepository(context.Background(), mt.Coll)
		require.NoError(mt, err)

		got, created, err := repo.CreateIfAbsent(context.Background(), &Account{ID: "acc-2", UID: "uid-1", Email: "a@b.co"})
		require.NoError(mt, err)
		assert.False(mt, created)
		assert.Equal(mt, "acc-1", got.ID)
	})

	mt.Run("email of another account", func(mt *mtest.T) {
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateWriteErrorsResponse(dup),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
		)
		repo, err := NewMongoRepository(context.Background(), mt.Coll)
		require.NoError(mt, err)

		_, _, err = repo.CreateIfAbsent(context.Background(), &Account{ID: "acc-2", UID: "uid-2", Email: "a@b.co"})
		require.ErrorIs(mt, err, ErrEmailTaken)
	})
}
