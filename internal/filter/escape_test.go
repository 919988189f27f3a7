package filter

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readLiteral scans one backslash escaped literal from the start of s and
// returns its decoded value and the remaining input.
func readLiteral(t *testing.T, s string) (string, string) {
	t.Helper()
	require.NotEmpty(t, s)
	require.Equal(t, byte('\''), s[0], "literal must start with a quote: %s", s)

	var out []byte
	for i := 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
			require.Less(t, i, len(s), "dangling escape in %s", s)
			out = append(out, s[i])
		case '\'':
			return string(out), s[i+1:]
		default:
			out = append(out, s[i])
		}
	}
	t.Fatalf("unterminated literal: %s", s)
	return "", ""
}

func TestQuoteLiteral(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  string
	}{
		{name: "plain", value: "etl_cluster", want: `'etl_cluster'`},
		{name: "single quote", value: "o'brien", want: `'o\'brien'`},
		{name: "double quote", value: `say "hi"`, want: `'say "hi"'`},
		{name: "backslash", value: `a\b`, want: `'a\\b'`},
		{name: "backslash before quote", value: `a\'`, want: `'a\\\''`},
		{name: "empty", value: "", want: `''`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := QuoteLiteral(tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			decoded, rest := readLiteral(t, got)
			assert.Equal(t, tt.value, decoded)
			assert.Empty(t, rest)
		})
	}
}

func TestQuoteLiteral_RejectsUnsafeInput(t *testing.T) {
	for _, value := range []string{"a\x00b", "\xff\xfe"} {
		_, err := QuoteLiteral(value)
		assert.True(t, errors.Is(err, ErrUnsafeLiteral), "value %q", value)
	}
}

func TestQuoteContains_EscapesWildcards(t *testing.T) {
	got, err := quoteContains(`100%_done\`)
	require.NoError(t, err)
	assert.Equal(t, `'%100\\%\\_done\\\\%'`, got)
}

func TestCheckIdentifier(t *testing.T) {
	assert.NoError(t, CheckIdentifier("virtual_cluster"))
	assert.NoError(t, CheckIdentifier("information_schema.job_history"))

	for _, bad := range []string{"", "1col", "status; drop", "a.", "job text", "x'--"} {
		assert.True(t, errors.Is(CheckIdentifier(bad), ErrInvalidColumn), "identifier %q", bad)
	}
}
