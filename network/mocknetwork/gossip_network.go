package mocknetwork

import (
	mock "github.com/stretchr/testify/mock"

	network "github.com/onflow/proof-relay/network"
	channels "github.com/onflow/proof-relay/network/channels"
)

// GossipNetwork is a mock type for the GossipNetwork type
type GossipNetwork struct {
	mock.Mock
}

// RegisterGossip provides a mock function with given fields: engineID, protocol, validator
func (_m *GossipNetwork) RegisterGossip(engineID channels.EngineID, protocol channels.ProtocolName, validator network.Validator) (network.GossipEngine, error) {
	ret := _m.Called(engineID, protocol, validator)

	var r0 network.GossipEngine
	var r1 error
	if rf, ok := ret.Get(0).(func(channels.EngineID, channels.ProtocolName, network.Validator) (network.GossipEngine, error)); ok {
		return rf(engineID, protocol, validator)
	}
	if rf, ok := ret.Get(0).(func(channels.EngineID, channels.ProtocolName, network.Validator) network.GossipEngine); ok {
		r0 = rf(engineID, protocol, validator)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(network.GossipEngine)
		}
	}

	if rf, ok := ret.Get(1).(func(channels.EngineID, channels.ProtocolName, network.Validator) error); ok {
		r1 = rf(engineID, protocol, validator)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

type mockConstructorTestingTNewGossipNetwork interface {
	mock.TestingT
	Cleanup(func())
}

// NewGossipNetwork creates a new instance of GossipNetwork. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewGossipNetwork(t mockConstructorTestingTNewGossipNetwork) *GossipNetwork {
	mock := &GossipNetwork{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
