package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"invoicex/internal/domain"
)

// MockStatsRepo is a mock implementation of port.StatsRepository.
type MockStatsRepo struct {
	mock.Mock
}

func (m *MockStatsRepo) GetInvoiceCounts(ctx context.Context, ownerID int64) (*domain.InvoiceCounts, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceCounts), args.Error(1)
}

func (m *MockStatsRepo) CountByMonth(ctx context.Context, ownerID int64, since time.Time) ([]domain.MonthlyCount, error) {
	args := m.Called(ctx, ownerID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.MonthlyCount), args.Error(1)
}
