package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonthlyCountsQuery_GroupsByUTCMonth(t *testing.T) {
	assert.Contains(t, monthlyCountsQuery, "date_trunc('month', created_at AT TIME ZONE 'UTC')")
	assert.Contains(t, monthlyCountsQuery, "'YYYY-MM'")
	assert.NotContains(t, monthlyCountsQuery, "date_trunc('month', created_at)")
}
