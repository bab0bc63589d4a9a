package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/aziot-sas-agent/pkg/identity"
)

// MockResolver is a mock implementation of the ResolverInterface
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context) (*identity.DeviceIdentity, error) {
	args := m.Called(ctx)
	device, _ := args.Get(0).(*identity.DeviceIdentity)
	return device, args.Error(1)
}
