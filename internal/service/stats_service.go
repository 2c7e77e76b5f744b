package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"invoicex/internal/domain"
	"invoicex/internal/port"
)

// StatsMonths is the number of calendar months in the monthly series, current month included.
const StatsMonths = 6

// StatsService provides aggregate statistics.
type StatsService interface {
	GetStats(ctx context.Context, ownerID int64) (*domain.InvoiceStats, error)
}

type statsService struct {
	statsRepo port.StatsRepository
	now       func() time.Time
}

// NewStatsService creates a new StatsService implementation.
func NewStatsService(statsRepo port.StatsRepository) StatsService {
	return &statsService{
		statsRepo: statsRepo,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NewStatsServiceWithClock creates a StatsService that reads the current time from now.
func NewStatsServiceWithClock(statsRepo port.StatsRepository, now func() time.Time) StatsService {
	return &statsService{statsRepo: statsRepo, now: now}
}

func (s *statsService) GetStats(ctx context.Context, ownerID int64) (*domain.InvoiceStats, error) {
	counts, err := s.statsRepo.GetInvoiceCounts(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("stats.GetStats: %w", err)
	}

	months := monthWindow(s.now(), StatsMonths)
	byMonth, err := s.statsRepo.CountByMonth(ctx, ownerID, months[0])
	if err != nil {
		return nil, fmt.Errorf("stats.GetStats monthly: %w", err)
	}
	found := make(map[string]int, len(byMonth))
	for _, m := range byMonth {
		found[m.Month] = m.Count
	}

	monthly := make([]domain.MonthlyCount, 0, len(months))
	for _, start := range months {
		key := start.Format("2006-01")
		monthly = append(monthly, domain.MonthlyCount{Month: key, Count: found[key]})
	}

	var successRate float64
	if counts.Total > 0 {
		successRate = float64(counts.Completed) / float64(counts.Total) * 100
	}

	return &domain.InvoiceStats{
		Total:             counts.Total,
		Completed:         counts.Completed,
		Failed:            counts.Failed,
		AverageConfidence: round(counts.AverageConfidence, 2),
		SuccessRate:       round(successRate, 1),
		MonthlyData:       monthly,
	}, nil
}

// monthWindow returns the first instant of each of the last n calendar months, oldest first.
func monthWindow(now time.Time, n int) []time.Time {
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	months := make([]time.Time, n)
	for i := 0; i < n; i++ {
		months[n-1-i] = current.AddDate(0, -i, 0)
	}
	return months
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
