package filter

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	errwrap "github.com/pkg/errors"
)

const TimestampLayout = "2006-01-02 15:04:05"

var (
	ErrUnsafeLiteral    = errwrap.New("literal cannot be escaped safely")
	ErrInvalidColumn    = errwrap.New("invalid column identifier")
	ErrInvalidDateRange = errwrap.New("invalid date range")
	ErrInvalidThreshold = errwrap.New("invalid slow threshold")
	ErrInvalidDays      = errwrap.New("invalid number of days")
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

	literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	likeEscaper    = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

// QuoteLiteral renders value as a single quoted string literal. Backslashes
// and quotes are backslash escaped. Values holding a NUL byte or invalid
// UTF-8 are rejected.
func QuoteLiteral(value string) (string, error) {
	if !utf8.ValidString(value) || strings.ContainsRune(value, 0) {
		return "", errwrap.Wrapf(ErrUnsafeLiteral, "%q", value)
	}
	return "'" + literalEscaper.Replace(value) + "'", nil
}

// quoteContains renders a LIKE pattern matching value as a plain substring.
func quoteContains(value string) (string, error) {
	return QuoteLiteral("%" + likeEscaper.Replace(value) + "%")
}

func quoteTimestamp(t time.Time) string {
	// A formatted timestamp never needs escaping.
	return "CAST('" + t.Format(TimestampLayout) + "' AS TIMESTAMP)"
}

// CheckIdentifier accepts plain and dotted identifiers such as
// information_schema.job_history.
func CheckIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return errwrap.Wrapf(ErrInvalidColumn, "%q", name)
	}
	return nil
}
