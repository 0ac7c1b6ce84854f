package mocks

import mock "github.com/stretchr/testify/mock"

// SingleResultHelper is a mock type for the SingleResultHelper type
type SingleResultHelper struct {
	mock.Mock
}

// Decode provides a mock function with given fields: v
func (_m *SingleResultHelper) Decode(v interface{}) error {
	ret := _m.Called(v)

	return ret.Error(0)
}
