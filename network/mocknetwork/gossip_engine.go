package mocknetwork

import (
	mock "github.com/stretchr/testify/mock"

	network "github.com/onflow/proof-relay/network"
	channels "github.com/onflow/proof-relay/network/channels"
)

// GossipEngine is a mock type for the GossipEngine type
type GossipEngine struct {
	mock.Mock
}

// GossipMessage provides a mock function with given fields: topic, data, force
func (_m *GossipEngine) GossipMessage(topic channels.Topic, data []byte, force bool) {
	_m.Called(topic, data, force)
}

// MessagesFor provides a mock function with given fields: topic
func (_m *GossipEngine) MessagesFor(topic channels.Topic) network.Subscription {
	ret := _m.Called(topic)

	var r0 network.Subscription
	if rf, ok := ret.Get(0).(func(channels.Topic) network.Subscription); ok {
		r0 = rf(topic)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(network.Subscription)
		}
	}

	return r0
}

// Poll provides a mock function with given fields:
func (_m *GossipEngine) Poll() network.PollResult {
	ret := _m.Called()

	var r0 network.PollResult
	if rf, ok := ret.Get(0).(func() network.PollResult); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(network.PollResult)
	}

	return r0
}

// Wake provides a mock function with given fields:
func (_m *GossipEngine) Wake() <-chan struct{} {
	ret := _m.Called()

	var r0 <-chan struct{}
	if rf, ok := ret.Get(0).(func() <-chan struct{}); ok {
		r0 = rf()
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(<-chan struct{})
		}
	}

	return r0
}

type mockConstructorTestingTNewGossipEngine interface {
	mock.TestingT
	Cleanup(func())
}

// NewGossipEngine creates a new instance of GossipEngine. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewGossipEngine(t mockConstructorTestingTNewGossipEngine) *GossipEngine {
	mock := &GossipEngine{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
