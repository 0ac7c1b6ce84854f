package databases_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/linesmerrill/police-case-api/config"
	"github.com/linesmerrill/police-case-api/databases"
	"github.com/linesmerrill/police-case-api/databases/mocks"
	"github.com/linesmerrill/police-case-api/models"
	"github.com/linesmerrill/police-case-api/workflow"
)

// passthrough runs transactions without a session
var passthrough = databases.TxRunnerFunc(func(ctx context.Context, _ bool, fn func(ctx context.Context) error) error {
	return fn(ctx)
})

func TestNewMongoStore(t *testing.T) {
	os.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
	os.Setenv("DB_NAME", "test")
	conf := config.New()

	dbClient, err := databases.NewClient(conf)
	assert.NoError(t, err)

	db := databases.NewDatabase(conf, dbClient)
	store := databases.NewMongoStore(db, databases.NewSessionRunner(dbClient))

	assert.NotEmpty(t, store)
}

func TestMongoStore_GetCase(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	srMissing := &mocks.SingleResultHelper{}
	srCorrect := &mocks.SingleResultHelper{}

	srMissing.On("Decode", mock.Anything).Return(mongo.ErrNoDocuments)
	srCorrect.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(*models.Case)
		arg.ID = 4
		arg.Details.Title = "mocked-case"
	})
	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": int64(3)}).Return(srMissing)
	collectionHelper.On("FindOne", context.Background(), bson.M{"_id": int64(4)}).Return(srCorrect)
	dbHelper.On("Collection", "cases").Return(collectionHelper)

	store := databases.NewMongoStore(dbHelper, passthrough)

	err := store.View(context.Background(), func(ctx context.Context, tx workflow.Tx) error {
		_, err := tx.GetCase(ctx, 3)
		assert.Equal(t, workflow.ErrNotFound, err)

		c, err := tx.GetCase(ctx, 4)
		require.NoError(t, err)
		assert.Equal(t, "mocked-case", c.Details.Title)
		return nil
	})
	assert.NoError(t, err)
}

func TestMongoStore_UpdateCase(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	current := models.Case{ID: 9, Version: 2, Details: models.CaseDetails{Title: "current"}}
	stale := models.Case{ID: 9, Version: 1, Details: models.CaseDetails{Title: "stale"}}

	collectionHelper.On("UpdateOne", context.Background(),
		bson.M{"_id": int64(9), "__v": int32(2)},
		bson.M{"$set": bson.M{"case": current.Details}, "$inc": bson.M{"__v": 1}},
	).Return(&mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil)
	collectionHelper.On("UpdateOne", context.Background(),
		bson.M{"_id": int64(9), "__v": int32(1)},
		mock.Anything,
	).Return(&mongo.UpdateResult{}, nil)
	dbHelper.On("Collection", "cases").Return(collectionHelper)

	store := databases.NewMongoStore(dbHelper, passthrough)

	err := store.RunInTx(context.Background(), func(ctx context.Context, tx workflow.Tx) error {
		return tx.UpdateCase(ctx, &current)
	})
	require.NoError(t, err)
	assert.Equal(t, int32(3), current.Version)

	err = store.RunInTx(context.Background(), func(ctx context.Context, tx workflow.Tx) error {
		return tx.UpdateCase(ctx, &stale)
	})
	assert.True(t, errors.Is(err, workflow.ErrStaleWrite))
	assert.Equal(t, int32(1), stale.Version)
}

func TestMongoStore_InsertAllocatesID(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	counters := &mocks.CollectionHelper{}
	tips := &mocks.CollectionHelper{}
	srCounter := &mocks.SingleResultHelper{}
	insertResult := &mocks.InsertOneResultHelper{}

	srCounter.On("Decode", mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		raw, err := bson.Marshal(bson.M{"_id": "tips", "seq": int64(12)})
		require.NoError(t, err)
		require.NoError(t, bson.Unmarshal(raw, args.Get(0)))
	})
	counters.On("FindOneAndUpdate", context.Background(), bson.M{"_id": "tips"}, bson.M{"$inc": bson.M{"seq": 1}}).Return(srCounter)
	tips.On("InsertOne", context.Background(), mock.AnythingOfType("*models.Tip")).Return(insertResult, nil)
	dbHelper.On("Collection", "counters").Return(counters)
	dbHelper.On("Collection", "tips").Return(tips)

	store := databases.NewMongoStore(dbHelper, passthrough)

	tip := models.Tip{Version: 5, Details: models.TipDetails{Content: "seen near the docks", CreatedAt: time.Now()}}
	err := store.RunInTx(context.Background(), func(ctx context.Context, tx workflow.Tx) error {
		return tx.InsertTip(ctx, &tip)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), tip.ID)
	assert.Equal(t, int32(0), tip.Version)
	tips.AssertExpectations(t)
}

func TestMongoStore_ViewRejectsWrites(t *testing.T) {
	store := databases.NewMongoStore(&mocks.DatabaseHelper{}, passthrough)
	err := store.View(context.Background(), func(ctx context.Context, tx workflow.Tx) error {
		return tx.UpdateTip(ctx, &models.Tip{ID: 1})
	})
	assert.Equal(t, workflow.ErrReadOnly, err)
}

func TestMongoStore_EnsureIndexes(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("CreateIndexes", context.Background(), mock.Anything).Return(nil)
	dbHelper.On("Collection", mock.Anything).Return(collectionHelper)

	store := databases.NewMongoStore(dbHelper, passthrough)
	assert.NoError(t, store.EnsureIndexes(context.Background()))
	dbHelper.AssertCalled(t, "Collection", "suspect_submissions")
	dbHelper.AssertCalled(t, "Collection", "reward_claims")
}
