package databases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/linesmerrill/police-case-api/databases"
	"github.com/linesmerrill/police-case-api/databases/mocks"
)

func TestEvidenceDatabase_CountByCase(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}
	cursor := &mocks.CursorHelper{}

	cursor.On("All", context.Background(), mock.Anything).Return(nil).Run(func(args mock.Arguments) {
		raw, err := bson.Marshal(bson.M{"rows": bson.A{
			bson.M{"_id": "photo", "count": int64(3)},
			bson.M{"_id": "witness_statement", "count": int64(1)},
		}})
		require.NoError(t, err)
		var wrapped struct {
			Rows bson.RawValue `bson:"rows"`
		}
		require.NoError(t, bson.Unmarshal(raw, &wrapped))
		require.NoError(t, wrapped.Rows.Unmarshal(args.Get(1)))
	})
	cursor.On("Close", context.Background()).Return(nil)
	collectionHelper.On("Aggregate", context.Background(), mock.Anything).Return(cursor, nil)
	dbHelper.On("Collection", "evidence").Return(collectionHelper)

	counts, err := databases.NewEvidenceDatabase(dbHelper).CountByCase(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"photo": 3, "witness_statement": 1}, counts)
}

func TestEvidenceDatabase_CountByCaseError(t *testing.T) {
	dbHelper := &mocks.DatabaseHelper{}
	collectionHelper := &mocks.CollectionHelper{}

	collectionHelper.On("Aggregate", context.Background(), mock.Anything).Return(nil, errors.New("mocked-error"))
	dbHelper.On("Collection", "evidence").Return(collectionHelper)

	counts, err := databases.NewEvidenceDatabase(dbHelper).CountByCase(context.Background(), 5)
	assert.Nil(t, counts)
	assert.EqualError(t, err, "mocked-error")
}
