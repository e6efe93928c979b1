package server

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func parseOptionalInt(value string) (int, error) {
	if value = strings.TrimSpace(value); value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

// parseMonto accepts a decimal amount with either "." or "," as separator
// and at most two decimals.
func parseMonto(value string) (decimal.Decimal, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return decimal.Zero, errors.New("invalid_monto")
	}
	if !strings.Contains(trimmed, ".") {
		trimmed = strings.Replace(trimmed, ",", ".", 1)
	}
	if i := strings.IndexByte(trimmed, '.'); i >= 0 && len(trimmed)-i-1 > 2 {
		return decimal.Zero, errors.New("invalid_monto")
	}
	return decimal.NewFromString(trimmed)
}

func parseOptionalTime(value string, endOfDay bool) (*time.Time, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if parsed, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return &parsed, nil
	}
	day, err := time.Parse(time.DateOnly, trimmed)
	if err != nil {
		return nil, errors.New("invalid_time")
	}
	// A bare date in hasta covers the whole day.
	if endOfDay {
		day = day.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return &day, nil
}
