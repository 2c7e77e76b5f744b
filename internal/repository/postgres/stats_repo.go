package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"invoicex/internal/domain"
	"invoicex/internal/port"
)

type statsRepo struct {
	db *sqlx.DB
}

// NewStatsRepo creates a new PostgreSQL-backed StatsRepository.
func NewStatsRepo(db *sqlx.DB) port.StatsRepository {
	return &statsRepo{db: db}
}

const invoiceCountsQuery = `SELECT
	COUNT(*) AS total,
	COUNT(CASE WHEN status = 'completed' THEN 1 END) AS completed,
	COUNT(CASE WHEN status = 'failed' THEN 1 END) AS failed,
	COALESCE(AVG(CASE WHEN status = 'completed' THEN confidence END), 0) AS average_confidence
FROM invoices WHERE owner_id = $1`

// Months are keyed in UTC regardless of the session TimeZone.
const monthlyCountsQuery = `SELECT
	to_char(date_trunc('month', created_at AT TIME ZONE 'UTC'), 'YYYY-MM') AS month,
	COUNT(*) AS count
FROM invoices
WHERE owner_id = $1 AND created_at >= $2
GROUP BY 1
ORDER BY 1`

func (r *statsRepo) GetInvoiceCounts(ctx context.Context, ownerID int64) (*domain.InvoiceCounts, error) {
	var counts domain.InvoiceCounts
	if err := r.db.GetContext(ctx, &counts, invoiceCountsQuery, ownerID); err != nil {
		return nil, fmt.Errorf("statsRepo.GetInvoiceCounts: %w", err)
	}
	return &counts, nil
}

func (r *statsRepo) CountByMonth(ctx context.Context, ownerID int64, since time.Time) ([]domain.MonthlyCount, error) {
	var months []domain.MonthlyCount
	if err := r.db.SelectContext(ctx, &months, monthlyCountsQuery, ownerID, since); err != nil {
		return nil, fmt.Errorf("statsRepo.CountByMonth: %w", err)
	}
	return months, nil
}
