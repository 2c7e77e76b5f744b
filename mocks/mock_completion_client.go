package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicex/internal/port"
)

// MockCompletionClient is a mock implementation of port.CompletionClient.
type MockCompletionClient struct {
	mock.Mock
}

func (m *MockCompletionClient) Complete(ctx context.Context, payload port.DocumentPayload, prompt string) (string, error) {
	args := m.Called(ctx, payload, prompt)
	return args.String(0), args.Error(1)
}
