package filter

import (
	"time"

	errwrap "github.com/pkg/errors"
)

// Spec is an immutable set of predicates over the job history table. Build
// one with a Builder.
type Spec struct {
	dateRange       *halfOpenRange
	clusters        []string
	users           []string
	ignoredJobTexts []string
	errorPatterns   []string
	slowThresholdMs int64

	facets     []Predicate
	exclusions []Predicate
}

// Where renders the base conjunction followed by extra. Error exclusions are
// not part of the base; pass Exclusions() as extra where they apply.
func (s Spec) Where(extra ...Predicate) string {
	preds := make([]Predicate, 0, len(s.facets)+len(extra)+1)
	if s.dateRange != nil {
		preds = append(preds, *s.dateRange)
	}
	preds = append(preds, s.facets...)
	preds = append(preds, extra...)
	return And(preds...)
}

// Exclusions returns the error message exclusions of the failed jobs view.
func (s Spec) Exclusions() []Predicate {
	out := make([]Predicate, len(s.exclusions))
	copy(out, s.exclusions)
	return out
}

// WidenToDays returns a copy whose date range is [end - days, end). All
// other predicates are kept.
func (s Spec) WidenToDays(days int) (Spec, error) {
	if days < 1 {
		return Spec{}, errwrap.Wrapf(ErrInvalidDays, "%d", days)
	}
	if s.dateRange == nil {
		return Spec{}, errwrap.Wrap(ErrInvalidDateRange, "spec has no date range to widen")
	}

	widened := *s.dateRange
	widened.start = widened.end.AddDate(0, 0, -days)
	s.dateRange = &widened
	return s, nil
}

// Start and End return the zero time when the spec has no date range.
func (s Spec) Start() time.Time {
	if s.dateRange == nil {
		return time.Time{}
	}
	return s.dateRange.start
}

func (s Spec) End() time.Time {
	if s.dateRange == nil {
		return time.Time{}
	}
	return s.dateRange.end
}

func (s Spec) SlowThresholdMs() int64 { return s.slowThresholdMs }

func (s Spec) Clusters() []string { return append([]string(nil), s.clusters...) }

func (s Spec) Users() []string { return append([]string(nil), s.users...) }

func (s Spec) IgnoredJobTexts() []string { return append([]string(nil), s.ignoredJobTexts...) }

func (s Spec) ErrorPatterns() []string { return append([]string(nil), s.errorPatterns...) }
