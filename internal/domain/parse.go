package domain

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	errNotNumeric  = errors.New("not a number")
	errMissing     = errors.New("missing value")
	errNonIntegral = errors.New("non-integral value")
)

// ParseList parses a textual list such as ["Crime","Drama"] or ['Crime', 'Drama'].
// Empty or unparseable input yields an empty, non-nil slice.
func ParseList(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(s), &out); err == nil && out != nil {
		return out
	}
	if items, ok := parseLiteralList(s); ok {
		return items
	}
	return []string{}
}

// parseLiteralList accepts a bracketed list of single- or double-quoted strings
// with backslash escapes, the form a Python list of str prints as.
func parseLiteralList(s string) ([]string, bool) {
	if len(s) < 2 || s[0] != '[' || s[len(s)-1] != ']' {
		return nil, false
	}
	body := s[1 : len(s)-1]
	items := []string{}
	i := 0
	skipSpace := func() {
		for i < len(body) && (body[i] == ' ' || body[i] == '\t') {
			i++
		}
	}
	for {
		skipSpace()
		if i >= len(body) {
			return items, true
		}
		quote := body[i]
		if quote != '\'' && quote != '"' {
			return nil, false
		}
		i++
		var b strings.Builder
		closed := false
		for i < len(body) {
			c := body[i]
			if c == '\\' && i+1 < len(body) {
				i = unescape(body, i+1, &b)
				continue
			}
			i++
			if c == quote {
				closed = true
				break
			}
			b.WriteByte(c)
		}
		if !closed {
			return nil, false
		}
		items = append(items, b.String())
		skipSpace()
		if i >= len(body) {
			return items, true
		}
		if body[i] != ',' {
			return nil, false
		}
		i++
	}
}

// unescape decodes the escape sequence whose first character is body[i] and
// returns the index just past it. Unknown escapes are kept with their
// backslash, as Python keeps them.
func unescape(body string, i int, b *strings.Builder) int {
	c := body[i]
	switch c {
	case 'n':
		b.WriteByte('\n')
		return i + 1
	case 't':
		b.WriteByte('\t')
		return i + 1
	case 'r':
		b.WriteByte('\r')
		return i + 1
	case 'a':
		b.WriteByte('\a')
		return i + 1
	case 'b':
		b.WriteByte('\b')
		return i + 1
	case 'f':
		b.WriteByte('\f')
		return i + 1
	case 'v':
		b.WriteByte('\v')
		return i + 1
	case '\\', '\'', '"':
		b.WriteByte(c)
		return i + 1
	case 'x', 'u', 'U':
		width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[c]
		if end := i + 1 + width; end <= len(body) {
			if n, err := strconv.ParseUint(body[i+1:end], 16, 32); err == nil && utf8.ValidRune(rune(n)) {
				b.WriteRune(rune(n))
				return end
			}
		}
	case '0', '1', '2', '3', '4', '5', '6', '7':
		end := i + 1
		for end < len(body) && end < i+3 && body[end] >= '0' && body[end] <= '7' {
			end++
		}
		n, _ := strconv.ParseUint(body[i:end], 8, 32)
		b.WriteRune(rune(n))
		return end
	}
	b.WriteByte('\\')
	b.WriteByte(c)
	return i + 1
}

// parseFloat parses a numeric cell. Surrounding whitespace is ignored.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errMissing
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, errNotNumeric
	}
	return v, nil
}

// truncateInt coerces a numeric string to int, truncating any fraction.
func truncateInt(s string) (int, error) {
	v, err := parseFloat(s)
	if err != nil {
		return 0, err
	}
	return toInt(v)
}

// toInt truncates v, rejecting NaN and values outside the int range.
func toInt(v float64) (int, error) {
	if math.IsNaN(v) || v < float64(math.MinInt) || v >= -float64(math.MinInt) {
		return 0, errNotNumeric
	}
	return int(v), nil
}

// nullableInt coerces a numeric string to *int. Empty input is nil; a value
// with a fractional part cannot be cast safely and is rejected.
func nullableInt(s string) (*int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseFloat(s)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(v) {
		return nil, nil
	}
	if math.IsInf(v, 0) {
		return nil, errNotNumeric
	}
	if v != math.Trunc(v) {
		return nil, errNonIntegral
	}
	n, err := toInt(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// round2 rounds to two decimals, halves to even on the scaled value.
func round2(v float64) float64 {
	return math.RoundToEven(v*100) / 100
}

func mean(sum float64, n int) float64 {
	return sum / float64(n)
}
