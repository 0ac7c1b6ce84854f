package mocks

import mock "github.com/stretchr/testify/mock"

// InsertOneResultHelper is a mock type for the InsertOneResultHelper type
type InsertOneResultHelper struct {
	mock.Mock
}

// Decode provides a mock function with given fields:
func (_m *InsertOneResultHelper) Decode() interface{} {
	ret := _m.Called()

	return ret.Get(0)
}
