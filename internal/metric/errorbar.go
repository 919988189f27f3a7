package metric

import (
	"strings"

	errwrap "github.com/pkg/errors"

	"github.com/rahmatrdn/go-sql-dashboard/entity"
)

const DefaultPercentileBand = "p50,p90,p99"

var ErrInvalidBand = errwrap.New("percentile band must be three ascending percentiles of p50, p75, p90, p95, p99")

var percentileOrder = map[string]int{"p50": 0, "p75": 1, "p90": 2, "p95": 3, "p99": 4}

// ParsePercentileBand parses "low,mid,high", for example "p50,p90,p99".
// An empty string selects DefaultPercentileBand.
func ParsePercentileBand(s string) (entity.PercentileBand, error) {
	if strings.TrimSpace(s) == "" {
		s = DefaultPercentileBand
	}

	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return entity.PercentileBand{}, errwrap.Wrapf(ErrInvalidBand, "%q", s)
	}

	prev := -1
	for i, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		rank, ok := percentileOrder[p]
		if !ok || rank <= prev {
			return entity.PercentileBand{}, errwrap.Wrapf(ErrInvalidBand, "%q", s)
		}
		parts[i] = p
		prev = rank
	}

	return entity.PercentileBand{Low: parts[0], Mid: parts[1], High: parts[2]}, nil
}

// BuildErrorBars projects daily stats onto a band, keeping the input order.
func BuildErrorBars(daily []entity.DailyStat, band entity.PercentileBand) []entity.ErrorBarPoint {
	if len(daily) == 0 {
		return nil
	}

	points := make([]entity.ErrorBarPoint, 0, len(daily))
	for _, d := range daily {
		low, _ := d.Percentile(band.Low)
		mid, _ := d.Percentile(band.Mid)
		high, _ := d.Percentile(band.High)
		points = append(points, entity.ErrorBarPoint{Date: d.Date, Low: low, Mid: mid, High: high})
	}
	return points
}
