package databases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/police-case-api/databases"
	"github.com/linesmerrill/police-case-api/databases/mocks"
)

func TestMemoryLockDatabase(t *testing.T) {
	ctx := context.Background()
	locks := databases.NewMemoryLockDatabase()

	ok, err := locks.TryAcquireLock(ctx, "job", "web.1", time.Minute)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = locks.TryAcquireLock(ctx, "job", "web.2", time.Minute)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, _ = locks.TryAcquireLock(ctx, "job", "web.1", time.Minute)
	assert.True(t, ok, "owner can renew its lock")

	assert.NoError(t, locks.ReleaseLock(ctx, "job", "web.2"))
	ok, _ = locks.TryAcquireLock(ctx, "job", "web.2", time.Minute)
	assert.False(t, ok, "release by another owner is ignored")

	assert.NoError(t, locks.ReleaseLock(ctx, "job", "web.1"))
	ok, _ = locks.TryAcquireLock(ctx, "job", "web.2", time.Minute)
	assert.True(t, ok)
}

func TestMemoryLockDatabase_Expired(t *testing.T) {
	ctx := context.Background()
	locks := databases.NewMemoryLockDatabase()

	ok, _ := locks.TryAcquireLock(ctx, "job", "web.1", -time.Second)
	assert.True(t, ok)
	ok, _ = locks.TryAcquireLock(ctx, "job", "web.2", time.Minute)
	assert.True(t, ok)
}

func TestLockDatabase_TryAcquireLock(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	held := &mocks.CollectionHelper{}
	free := &mocks.CollectionHelper{}
	broken := &mocks.CollectionHelper{}

	dupErr := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "duplicate key"}}}
	held.On("UpdateOne", context.Background(), mock.Anything, mock.Anything).Return(nil, dupErr)
	free.On("UpdateOne", context.Background(), mock.Anything, mock.Anything).Return(&mongo.UpdateResult{UpsertedCount: 1}, nil)
	broken.On("UpdateOne", context.Background(), mock.Anything, mock.Anything).Return(nil, errors.New("mocked-error"))

	dbHelper.On("Collection", "scheduler_locks").Return(held).Once()
	dbHelper.On("Collection", "scheduler_locks").Return(free).Once()
	dbHelper.On("Collection", "scheduler_locks").Return(broken).Once()

	locks := databases.NewLockDatabase(dbHelper)

	ok, err := locks.TryAcquireLock(context.Background(), "job", "web.2", time.Minute)
	assert.NoError(t, err)
	assert.False(t, ok)

	ok, err = locks.TryAcquireLock(context.Background(), "job", "web.2", time.Minute)
	assert.NoError(t, err)
	assert.True(t, ok)

	ok, err = locks.TryAcquireLock(context.Background(), "job", "web.2", time.Minute)
	assert.EqualError(t, err, "mocked-error")
	assert.False(t, ok)
}

func TestLockDatabase_ReleaseLock(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("DeleteOne", context.Background(), bson.M{"_id": "job", "owner": "web.1"}).Return(nil)
	dbHelper.On("Collection", "scheduler_locks").Return(collectionHelper)

	locks := databases.NewLockDatabase(dbHelper)
	assert.NoError(t, locks.ReleaseLock(context.Background(), "job", "web.1"))
	collectionHelper.AssertExpectations(t)
}
