package filter

import (
	"strconv"
	"strings"
	"time"
)

// Predicate is one boolean term of a WHERE clause. Every literal inside a
// Predicate has been escaped when the Predicate was built.
type Predicate interface {
	SQL() string
}

type inList struct {
	expr     string
	literals []string
	negate   bool
}

func (p inList) SQL() string {
	op := " IN ("
	if p.negate {
		op = " NOT IN ("
	}
	return p.expr + op + strings.Join(p.literals, ", ") + ")"
}

type comparison struct {
	left  string
	op    string
	right string
}

func (p comparison) SQL() string {
	return p.left + " " + p.op + " " + p.right
}

type halfOpenRange struct {
	column string
	start  time.Time
	end    time.Time
}

func (p halfOpenRange) SQL() string {
	return p.column + " >= " + quoteTimestamp(p.start) + " AND " + p.column + " < " + quoteTimestamp(p.end)
}

// And renders the conjunction of preds. The empty conjunction is true.
func And(preds ...Predicate) string {
	if len(preds) == 0 {
		return "true"
	}
	parts := make([]string, 0, len(preds))
	for _, p := range preds {
		parts = append(parts, p.SQL())
	}
	return strings.Join(parts, " AND ")
}

// Eq builds column = 'value'.
func Eq(column, value string) (Predicate, error) {
	if err := CheckIdentifier(column); err != nil {
		return nil, err
	}
	lit, err := QuoteLiteral(value)
	if err != nil {
		return nil, err
	}
	return comparison{left: column, op: "=", right: lit}, nil
}

// AtLeast builds expr >= n. expr is a trusted expression over table columns,
// such as "execution_time * 1000".
func AtLeast(expr string, n int64) Predicate {
	return comparison{left: expr, op: ">=", right: strconv.FormatInt(n, 10)}
}

// MustPredicate panics when err is not nil. It is meant for predicates built
// from constants at package initialization.
func MustPredicate(p Predicate, err error) Predicate {
	if err != nil {
		panic(err)
	}
	return p
}
