package parser

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Report timestamps look like "2017/03/02 11:19:55 -0800"; some exports drop
// the offset or the time entirely.
var dateLayouts = []string{
	"2006/01/02 15:04:05 -0700",
	"2006/01/02 15:04:05",
	"2006/01/02",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02",
}

// parseDate converts a report timestamp string to a unix timestamp.
func parseDate(s string) (int64, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Unix(), nil
		}
	}
	return 0, fmt.Errorf("could not parse date: %q", s)
}

// parseAmount converts a raw report amount (an integer count of hundredths,
// possibly signed) to a float64 of hundredths. Empty values are zero.
func parseAmount(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// orderIDPattern matches the digits[.digits] shape a resolvable order id
// must have.
var orderIDPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// batchReference turns the leading date of a report timestamp into a compact
// settlement batch reference, e.g. "2017/03/02 11:19:55 -0800" -> "20170302".
func batchReference(ts string) string {
	if len(ts) > 10 {
		ts = ts[:10]
	}
	return strings.ReplaceAll(ts, "/", "")
}

// Currencies without a minor unit.
var zeroDecimalCurrencies = map[string]bool{
	"CLP": true, "DJF": true, "IDR": true, "JPY": true,
	"KMF": true, "KRW": true, "MGA": true, "PYG": true,
	"VND": true, "XAF": true, "XOF": true, "XPF": true,
}

// Currencies whose minor unit is thousandths.
var threeDecimalCurrencies = map[string]bool{
	"BHD": true, "CLF": true, "IQD": true, "JOD": true,
	"KWD": true, "LYD": true, "MRO": true, "OMR": true,
	"TND": true,
}

// roundToCurrency rounds an amount to the currency's minor-unit precision:
// two decimals for most, three for thousandth-unit currencies, and floor for
// currencies with no fractional amounts.
func roundToCurrency(amount float64, currency string) float64 {
	currency = strings.ToUpper(currency)
	if zeroDecimalCurrencies[currency] {
		return math.Floor(amount)
	}
	shift := 100.0
	if threeDecimalCurrencies[currency] {
		shift = 1000.0
	}
	return math.Round(amount*shift) / shift
}
