package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"json", `["Crime","Drama"]`, []string{"Crime", "Drama"}},
		{"single quoted", `['Crime', 'Drama']`, []string{"Crime", "Drama"}},
		{"mixed quotes", `["It's", 'Fine']`, []string{"It's", "Fine"}},
		{"escaped quote", `['It\'s']`, []string{"It's"}},
		{"empty list", `[]`, []string{}},
		{"empty string", ``, []string{}},
		{"whitespace", `   `, []string{}},
		{"keeps empty entries", `['English', '']`, []string{"English", ""}},
		{"not a list", `Crime, Drama`, []string{}},
		{"unterminated", `['Crime`, []string{}},
		{"bare words", `[Crime, Drama]`, []string{}},
		{"json non-strings", `[1, 2]`, []string{}},
		{"control escapes", `['a\tb', 'line\nbreak', 'cr\r']`, []string{"a\tb", "line\nbreak", "cr\r"}},
		{"hex and unicode escapes", `['caf\xe9', '\u65e5\U0001F600']`, []string{"café", "日😀"}},
		{"octal escape", `['a\101']`, []string{"aA"}},
		{"backslash escape", `['C:\\dir']`, []string{`C:\dir`}},
		{"unknown escape kept", `['\q']`, []string{`\q`}},
		{"bad hex escape kept", `['\xzz']`, []string{`\xzz`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseList(tt.in)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTruncateInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr error
	}{
		{"118", 118, nil},
		{"118.9", 118, nil},
		{"-3.5", -3, nil},
		{"1e3", 1000, nil},
		{"", 0, errMissing},
		{"abc", 0, errNotNumeric},
		{"NaN", 0, errNotNumeric},
		{"Inf", 0, errNotNumeric},
		{" 42 ", 42, nil},
		{"1e30", 0, errNotNumeric},
		{"-1e30", 0, errNotNumeric},
		{"9223372036854775808", 0, errNotNumeric},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := truncateInt(tt.in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNullableInt(t *testing.T) {
	t.Run("empty is null", func(t *testing.T) {
		v, err := nullableInt("")
		require.NoError(t, err)
		assert.Nil(t, v)
	})
	t.Run("nan is null", func(t *testing.T) {
		v, err := nullableInt("nan")
		require.NoError(t, err)
		assert.Nil(t, v)
	})
	t.Run("out of range", func(t *testing.T) {
		_, err := nullableInt("1e30")
		assert.ErrorIs(t, err, errNotNumeric)
	})
	t.Run("integral float", func(t *testing.T) {
		v, err := nullableInt("2002.0")
		require.NoError(t, err)
		require.NotNil(t, v)
		assert.Equal(t, 2002, *v)
	})
	t.Run("fraction", func(t *testing.T) {
		_, err := nullableInt("2002.5")
		assert.ErrorIs(t, err, errNonIntegral)
	})
	t.Run("infinite", func(t *testing.T) {
		_, err := nullableInt("-inf")
		assert.ErrorIs(t, err, errNotNumeric)
	})
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{7.666666, 7.67},
		{9, 9},
		{6.125, 6.12},
		{6.375, 6.38},
		{0.004, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round2(tt.in), "round2(%v)", tt.in)
	}
}
