package filter

import (
	"sort"
	"strings"
	"time"

	errwrap "github.com/pkg/errors"
)

const (
	ClusterColumn      = "virtual_cluster"
	UserColumn         = "job_creator"
	JobTextColumn      = "job_text"
	ErrorMessageColumn = "error_message"
)

// normalizedJobText is the query side of NormalizeJobText.
const normalizedJobText = "trim(trim(TRAILING ';' FROM lower(trim(" + JobTextColumn + "))))"

// Builder accumulates predicates. The first error is kept and returned by
// Build; later calls are no-ops.
type Builder struct {
	spec Spec
	err  error
}

func NewBuilder() *Builder {
	return &Builder{}
}

// EqualityIn restricts column to values. An empty set adds nothing.
func (b *Builder) EqualityIn(column string, values []string) *Builder {
	if b.err != nil {
		return b
	}
	_, err := b.equalityIn(column, values)
	b.err = err
	return b
}

// Clusters restricts virtual_cluster to values.
func (b *Builder) Clusters(values []string) *Builder {
	if b.err != nil {
		return b
	}
	b.spec.clusters, b.err = b.equalityIn(ClusterColumn, values)
	return b
}

// Users restricts job_creator to values.
func (b *Builder) Users(values []string) *Builder {
	if b.err != nil {
		return b
	}
	b.spec.users, b.err = b.equalityIn(UserColumn, values)
	return b
}

func (b *Builder) equalityIn(column string, values []string) ([]string, error) {
	funcName := "Builder.EqualityIn"
	if err := CheckIdentifier(column); err != nil {
		return nil, errwrap.Wrap(err, funcName)
	}

	set := uniqueSorted(values)
	if len(set) == 0 {
		return nil, nil
	}

	literals, err := quoteAll(set)
	if err != nil {
		return nil, errwrap.Wrap(err, funcName)
	}
	b.spec.facets = append(b.spec.facets, inList{expr: column, literals: literals})
	return set, nil
}

// DateRange sets the half-open window [start, end) on column, replacing any
// earlier range.
func (b *Builder) DateRange(column string, start, end time.Time) *Builder {
	if b.err != nil {
		return b
	}
	funcName := "Builder.DateRange"
	if err := CheckIdentifier(column); err != nil {
		b.err = errwrap.Wrap(err, funcName)
		return b
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		b.err = errwrap.Wrapf(ErrInvalidDateRange, "%s: [%s, %s)", funcName, start.Format(TimestampLayout), end.Format(TimestampLayout))
		return b
	}

	b.spec.dateRange = &halfOpenRange{column: column, start: start, end: end}
	return b
}

// ErrorExclusions drops failures whose error message contains any of
// patterns. Missing messages never match a pattern.
func (b *Builder) ErrorExclusions(patterns []string) *Builder {
	if b.err != nil {
		return b
	}
	funcName := "Builder.ErrorExclusions"

	var trimmed []string
	for _, pattern := range patterns {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			trimmed = append(trimmed, pattern)
		}
	}

	set := uniqueSorted(trimmed)
	for _, pattern := range set {
		lit, err := quoteContains(pattern)
		if err != nil {
			b.err = errwrap.Wrap(err, funcName)
			return b
		}
		b.spec.exclusions = append(b.spec.exclusions, comparison{
			left:  "coalesce(" + ErrorMessageColumn + ", '')",
			op:    "NOT LIKE",
			right: lit,
		})
	}
	b.spec.errorPatterns = append(b.spec.errorPatterns, set...)
	return b
}

// IgnoreJobTexts excludes jobs whose normalized text equals one of the
// separator delimited entries of raw. Both sides are normalized the same way.
func (b *Builder) IgnoreJobTexts(raw, separator string) *Builder {
	if b.err != nil {
		return b
	}
	if separator == "" {
		separator = ";"
	}

	var texts []string
	for _, part := range strings.Split(raw, separator) {
		if text := NormalizeJobText(part); text != "" {
			texts = append(texts, text)
		}
	}
	texts = uniqueSorted(texts)
	if len(texts) == 0 {
		return b
	}

	literals, err := quoteAll(texts)
	if err != nil {
		b.err = errwrap.Wrap(err, "Builder.IgnoreJobTexts")
		return b
	}
	b.spec.facets = append(b.spec.facets, inList{expr: normalizedJobText, literals: literals, negate: true})
	b.spec.ignoredJobTexts = texts
	return b
}

func (b *Builder) SlowThreshold(ms int64) *Builder {
	if b.err != nil {
		return b
	}
	if ms < 0 {
		b.err = errwrap.Wrapf(ErrInvalidThreshold, "%d ms", ms)
		return b
	}
	b.spec.slowThresholdMs = ms
	return b
}

func (b *Builder) Build() (Spec, error) {
	if b.err != nil {
		return Spec{}, b.err
	}

	spec := b.spec
	spec.facets = append([]Predicate(nil), b.spec.facets...)
	spec.exclusions = append([]Predicate(nil), b.spec.exclusions...)
	return spec, nil
}

// NormalizeJobText mirrors normalizedJobText: trim, lowercase, strip every
// trailing semicolon, trim again.
func NormalizeJobText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = strings.TrimRight(text, ";")
	return strings.TrimSpace(text)
}

func uniqueSorted(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func quoteAll(values []string) ([]string, error) {
	literals := make([]string, 0, len(values))
	for _, v := range values {
		lit, err := QuoteLiteral(v)
		if err != nil {
			return nil, err
		}
		literals = append(literals, lit)
	}
	return literals, nil
}
