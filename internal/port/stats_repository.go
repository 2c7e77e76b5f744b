package port

import (
	"context"
	"time"

	"invoicex/internal/domain"
)

// StatsRepository defines the contract for aggregated invoice statistics.
type StatsRepository interface {
	GetInvoiceCounts(ctx context.Context, ownerID int64) (*domain.InvoiceCounts, error)
	CountByMonth(ctx context.Context, ownerID int64, since time.Time) ([]domain.MonthlyCount, error)
}
