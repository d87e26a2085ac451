package bankcsv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"01-11-2024", date(2024, 11, 1)},
		{"01/11/2024", date(2024, 11, 1)},
		{"2024-11-01", date(2024, 11, 1)},
		{"15 Jan 2024", date(2024, 1, 15)},
		{"5 Mar 2023", date(2023, 3, 5)},
		{"15-Jan-2024", date(2024, 1, 15)},
		{"  01-11-2024  ", date(2024, 11, 1)},
		{"2024-11-01 10:30:00", date(2024, 11, 1).Add(10*time.Hour + 30*time.Minute)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseDateTwoDigitYearPivot(t *testing.T) {
	// Years above 50 resolve to the 1900s, the rest to the 2000s.
	tests := []struct {
		input string
		want  time.Time
	}{
		{"01-11-24", date(2024, 11, 1)},
		{"01-11-50", date(2050, 11, 1)},
		{"01-11-51", date(1951, 11, 1)},
		{"01-11-74", date(1974, 11, 1)},
		{"01/11/99", date(1999, 11, 1)},
		{"01/11/00", date(2000, 11, 1)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestParseDateFailures(t *testing.T) {
	for _, input := range []string{"", "   ", "not a date", "32-13-2024", "2024"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseDate(input)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnparseableDate)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"₹1,500.00", "1500"},
		{"1500.00", "1500"},
		{"1,23,456.78", "123456.78"},
		{"Rs. 2,000", "2000"},
		{"INR 99.99", "99.99"},
		{"$45.10", "45.1"},
		{"-500.25", "500.25"}, // sign is carried by direction, never the value
		{"  750 ", "750"},
		{`"1,250.00"`, "1250"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseAmount(tt.input)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseAmountUnparseableIsZero(t *testing.T) {
	for _, input := range []string{"", "   ", "-", "N/A", "abc"} {
		t.Run(input, func(t *testing.T) {
			assert.True(t, ParseAmount(input).IsZero())
		})
	}
}
