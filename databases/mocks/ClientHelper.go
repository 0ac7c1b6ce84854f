package mocks

import (
	context "context"

	mock "github.com/stretchr/testify/mock"
	mongo "go.mongodb.org/mongo-driver/mongo"

	databases "github.com/linesmerrill/police-case-api/databases"
)

// ClientHelper is a mock type for the ClientHelper type
type ClientHelper struct {
	mock.Mock
}

// Connect provides a mock function with given fields: ctx
func (_m *ClientHelper) Connect(ctx context.Context) error {
	ret := _m.Called(ctx)

	return ret.Error(0)
}

// Database provides a mock function with given fields: name
func (_m *ClientHelper) Database(name string) databases.DatabaseHelper {
	ret := _m.Called(name)

	var r0 databases.DatabaseHelper
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(databases.DatabaseHelper)
	}

	return r0
}

// Disconnect provides a mock function with given fields: ctx
func (_m *ClientHelper) Disconnect(ctx context.Context) error {
	ret := _m.Called(ctx)

	return ret.Error(0)
}

// Ping provides a mock function with given fields: ctx
func (_m *ClientHelper) Ping(ctx context.Context) error {
	ret := _m.Called(ctx)

	return ret.Error(0)
}

// StartSession provides a mock function with given fields:
func (_m *ClientHelper) StartSession() (mongo.Session, error) {
	ret := _m.Called()

	var r0 mongo.Session
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(mongo.Session)
	}

	return r0, ret.Error(1)
}
