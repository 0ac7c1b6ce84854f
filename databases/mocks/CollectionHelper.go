package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
	mongo "go.mongodb.org/mongo-driver/mongo"
	options "go.mongodb.org/mongo-driver/mongo/options"

	databases "github.com/linesmerrill/police-case-api/databases"
)

// CollectionHelper is a mock type for the CollectionHelper type.
// Variadic options are not passed to the recorded call.
type CollectionHelper struct {
	mock.Mock
}

// Aggregate provides a mock function with given fields: ctx, pipeline
func (_m *CollectionHelper) Aggregate(ctx context.Context, pipeline interface{}, _ ...*options.AggregateOptions) (databases.CursorHelper, error) {
	ret := _m.Called(ctx, pipeline)

	var r0 databases.CursorHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.CursorHelper)
	}

	return r0, ret.Error(1)
}

// CreateIndexes provides a mock function with given fields: ctx, indexes
func (_m *CollectionHelper) CreateIndexes(ctx context.Context, indexes []mongo.IndexModel) error {
	ret := _m.Called(ctx, indexes)

	return ret.Error(0)
}

// DeleteOne provides a mock function with given fields: ctx, filter
func (_m *CollectionHelper) DeleteOne(ctx context.Context, filter interface{}, _ ...*options.DeleteOptions) error {
	ret := _m.Called(ctx, filter)

	return ret.Error(0)
}

// Find provides a mock function with given fields: ctx, filter
func (_m *CollectionHelper) Find(ctx context.Context, filter interface{}, _ ...*options.FindOptions) (databases.CursorHelper, error) {
	ret := _m.Called(ctx, filter)

	var r0 databases.CursorHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.CursorHelper)
	}

	return r0, ret.Error(1)
}

// FindOne provides a mock function with given fields: ctx, filter
func (_m *CollectionHelper) FindOne(ctx context.Context, filter interface{}, _ ...*options.FindOneOptions) databases.SingleResultHelper {
	ret := _m.Called(ctx, filter)

	var r0 databases.SingleResultHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.SingleResultHelper)
	}

	return r0
}

// FindOneAndUpdate provides a mock function with given fields: ctx, filter, update
func (_m *CollectionHelper) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, _ ...*options.FindOneAndUpdateOptions) databases.SingleResultHelper {
	ret := _m.Called(ctx, filter, update)

	var r0 databases.SingleResultHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.SingleResultHelper)
	}

	return r0
}

// InsertOne provides a mock function with given fields: ctx, document
func (_m *CollectionHelper) InsertOne(ctx context.Context, document interface{}, _ ...*options.InsertOneOptions) (databases.InsertOneResultHelper, error) {
	ret := _m.Called(ctx, document)

	var r0 databases.InsertOneResultHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.InsertOneResultHelper)
	}

	return r0, ret.Error(1)
}

// UpdateOne provides a mock function with given fields: ctx, filter, update
func (_m *CollectionHelper) UpdateOne(ctx context.Context, filter interface{}, update interface{}, _ ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	ret := _m.Called(ctx, filter, update)

	var r0 *mongo.UpdateResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*mongo.UpdateResult)
	}

	return r0, ret.Error(1)
}
