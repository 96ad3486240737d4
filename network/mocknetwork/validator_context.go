package mocknetwork

import (
	mock "github.com/stretchr/testify/mock"

	channels "github.com/onflow/proof-relay/network/channels"
)

// ValidatorContext is a mock type for the ValidatorContext type
type ValidatorContext struct {
	mock.Mock
}

// BroadcastMessage provides a mock function with given fields: topic, data, force
func (_m *ValidatorContext) BroadcastMessage(topic channels.Topic, data []byte, force bool) {
	_m.Called(topic, data, force)
}

type mockConstructorTestingTNewValidatorContext interface {
	mock.TestingT
	Cleanup(func())
}

// NewValidatorContext creates a new instance of ValidatorContext. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewValidatorContext(t mockConstructorTestingTNewValidatorContext) *ValidatorContext {
	mock := &ValidatorContext{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
