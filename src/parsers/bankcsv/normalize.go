// backend/src/parsers/bankcsv/normalize.go
package bankcsv

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnparseableDate is returned when a date string matches none of the
// supported statement formats.
var ErrUnparseableDate = errors.New("unparseable date")

// dateLayouts are tried in order; the first layout that parses wins and no
// further layouts are attempted. Two-digit years are handled separately so the
// century pivot stays explicit.
var dateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
}

var twoDigitYearLayouts = []string{
	"02-01-06",
	"02/01/06",
}

var textMonthLayouts = []string{
	"02 Jan 2006",
	"2 Jan 2006",
	"02-Jan-2006",
}

// fallbackLayouts catches the occasional export that carries a time component.
var fallbackLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02-01-2006 15:04:05",
}

// ParseDate parses a locale-ambiguous statement date. Dates are interpreted in
// UTC; statements carry no timezone and none is invented for them.
func ParseDate(text string) (time.Time, error) {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" {
		return time.Time{}, fmt.Errorf("%w: empty value", ErrUnparseableDate)
	}

	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, time.UTC); err == nil {
			return t, nil
		}
	}

	for _, layout := range twoDigitYearLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, time.UTC); err == nil {
			// time.Parse resolves two-digit years with a pivot at 69. The
			// statement convention pivots at 50 instead: >50 means 19xx.
			yy := t.Year() % 100
			century := 2000
			if yy > 50 {
				century = 1900
			}
			return time.Date(century+yy, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	for _, layout := range textMonthLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, time.UTC); err == nil {
			return t, nil
		}
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, cleaned, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, text)
}

var currencySymbolReplacer = strings.NewReplacer(
	"₹", "",
	"Rs.", "",
	"Rs", "",
	"INR", "",
	"$", "",
	"€", "",
	"£", "",
	",", "",
	" ", "",
	" ", "", // non-breaking space
	"\"", "",
)

// ParseAmount converts a currency-formatted string like "₹1,500.00" into a
// non-negative decimal. An unparseable or empty amount yields zero rather than
// an error: a row where both debit and credit come out zero is a row-level
// validation failure, not an amount-parsing failure.
func ParseAmount(text string) decimal.Decimal {
	cleaned := currencySymbolReplacer.Replace(strings.TrimSpace(text))
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d.Abs().Round(2)
}
