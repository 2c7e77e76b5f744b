package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicex/internal/port"
)

// MockDocumentLoader is a mock implementation of port.DocumentLoader.
type MockDocumentLoader struct {
	mock.Mock
}

func (m *MockDocumentLoader) Load(ctx context.Context, location string) (port.DocumentPayload, error) {
	args := m.Called(ctx, location)
	return args.Get(0).(port.DocumentPayload), args.Error(1)
}
