package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"underwriter/internal/extractor"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain", "1200", 1200, true},
		{"dollar and commas", "$1,234.56", 1234.56, true},
		{"negative", "-500", -500, true},
		{"embedded text", "rent: $2,400.00 monthly", 2400, true},
		{"empty", "", 0, false},
		{"no digits", "n/a", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractor.ParseAmount(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseAmountOr(t *testing.T) {
	assert.Equal(t, 42.0, extractor.ParseAmountOr("n/a", 42))
	assert.Equal(t, 1500.0, extractor.ParseAmountOr("1,500", 42))
}

func TestParsePercent(t *testing.T) {
	v, ok := extractor.ParsePercent("Occupancy: 82.5 %")
	assert.True(t, ok)
	assert.Equal(t, 82.5, v)

	_, ok = extractor.ParsePercent("no percentage here")
	assert.False(t, ok)
}

func TestParseDate(t *testing.T) {
	assert.Equal(t, "2024-01-15", extractor.ParseDate("January 15, 2024", ""))
	assert.Equal(t, "2024-01-15", extractor.ParseDate("2024-01-15", ""))
	assert.Equal(t, "fallback", extractor.ParseDate("not a date", "fallback"))
	assert.Equal(t, "", extractor.ParseDate("", ""))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hello world", extractor.CleanText("  Hello\n\t World  "))
}
