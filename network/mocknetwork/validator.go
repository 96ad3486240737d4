package mocknetwork

import (
	mock "github.com/stretchr/testify/mock"

	network "github.com/onflow/proof-relay/network"

	peer "github.com/libp2p/go-libp2p/core/peer"
)

// Validator is a mock type for the Validator type
type Validator struct {
	mock.Mock
}

// NewPeer provides a mock function with given fields: ctx, who
func (_m *Validator) NewPeer(ctx network.ValidatorContext, who peer.ID) {
	_m.Called(ctx, who)
}

// PeerDisconnected provides a mock function with given fields: ctx, who
func (_m *Validator) PeerDisconnected(ctx network.ValidatorContext, who peer.ID) {
	_m.Called(ctx, who)
}

// Validate provides a mock function with given fields: ctx, sender, data
func (_m *Validator) Validate(ctx network.ValidatorContext, sender peer.ID, data []byte) network.ValidationResult {
	ret := _m.Called(ctx, sender, data)

	var r0 network.ValidationResult
	if rf, ok := ret.Get(0).(func(network.ValidatorContext, peer.ID, []byte) network.ValidationResult); ok {
		r0 = rf(ctx, sender, data)
	} else {
		r0 = ret.Get(0).(network.ValidationResult)
	}

	return r0
}

type mockConstructorTestingTNewValidator interface {
	mock.TestingT
	Cleanup(func())
}

// NewValidator creates a new instance of Validator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewValidator(t mockConstructorTestingTNewValidator) *Validator {
	mock := &Validator{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
