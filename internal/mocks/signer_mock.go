package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/benmeehan/aziot-sas-agent/pkg/keys"
	"github.com/benmeehan/aziot-sas-agent/pkg/sas"
)

// MockKeyService is a mock implementation of the KeyServiceInterface
type MockKeyService struct {
	mock.Mock
}

func (m *MockKeyService) Sign(ctx context.Context, handle keys.KeyHandle, mechanism keys.Mechanism, data []byte) ([]byte, error) {
	args := m.Called(ctx, handle, mechanism, data)
	signature, _ := args.Get(0).([]byte)
	return signature, args.Error(1)
}

// MockTokenSigner is a mock implementation of the TokenSignerInterface
type MockTokenSigner struct {
	mock.Mock
}

func (m *MockTokenSigner) Sign(ctx context.Context, hubName, deviceID, moduleID string, handle keys.KeyHandle, now time.Time) (sas.Token, error) {
	args := m.Called(ctx, hubName, deviceID, moduleID, handle, now)
	return args.Get(0).(sas.Token), args.Error(1)
}
