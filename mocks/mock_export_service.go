package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockExportService is a mock implementation of service.ExportService.
// When the first return value is a string it is written to w.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportCSV(ctx context.Context, ownerID int64, w io.Writer) error {
	args := m.Called(ctx, ownerID, w)
	if body, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(1)
}

func (m *MockExportService) ExportXLSX(ctx context.Context, ownerID int64, w io.Writer) error {
	args := m.Called(ctx, ownerID, w)
	if body, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(1)
}
