package metric

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
)

func TestParsePercentileBand(t *testing.T) {
	band, err := ParsePercentileBand("")
	require.NoError(t, err)
	assert.Equal(t, entity.PercentileBand{Low: "p50", Mid: "p90", High: "p99"}, band)

	band, err = ParsePercentileBand(" P75, p90 ,p95")
	require.NoError(t, err)
	assert.Equal(t, entity.PercentileBand{Low: "p75", Mid: "p90", High: "p95"}, band)

	for _, bad := range []string{"p50,p90", "p99,p90,p50", "p50,p50,p99", "p50,p60,p99", "p50,p75,p90,p99"} {
		_, err := ParsePercentileBand(bad)
		assert.True(t, errors.Is(err, ErrInvalidBand), "band %q", bad)
	}
}

func TestBuildErrorBars(t *testing.T) {
	d1 := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, -1)
	daily := []entity.DailyStat{
		{Date: d1, P50Ms: 10, P75Ms: 20, P90Ms: 30, P95Ms: 40, P99Ms: 50},
		{Date: d2, P50Ms: 1, P75Ms: 2, P90Ms: 3, P95Ms: 4, P99Ms: 5},
	}

	points := BuildErrorBars(daily, entity.PercentileBand{Low: "p75", Mid: "p90", High: "p99"})
	assert.Equal(t, []entity.ErrorBarPoint{
		{Date: d1, Low: 20, Mid: 30, High: 50},
		{Date: d2, Low: 2, Mid: 3, High: 5},
	}, points)

	assert.Nil(t, BuildErrorBars(nil, entity.PercentileBand{}))
}
