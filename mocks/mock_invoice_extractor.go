package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"invoicex/internal/domain"
)

// MockInvoiceExtractor is a mock implementation of port.InvoiceExtractor.
type MockInvoiceExtractor struct {
	mock.Mock
}

func (m *MockInvoiceExtractor) Extract(ctx context.Context, location string) (*domain.ExtractedData, float64, error) {
	args := m.Called(ctx, location)
	if args.Get(0) == nil {
		return nil, args.Get(1).(float64), args.Error(2)
	}
	return args.Get(0).(*domain.ExtractedData), args.Get(1).(float64), args.Error(2)
}
