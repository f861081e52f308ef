package service

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// withTimeout derives a per-call deadline. A non-positive timeout leaves ctx as is.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, timeout)
}

// abbreviate shortens name to maxLen runes followed by "." for chart axes
func abbreviate(name string, maxLen int) string {
	if maxLen < 1 || utf8.RuneCountInString(name) <= maxLen {
		return name
	}
	return string([]rune(name)[:maxLen]) + "."
}

// money converts an exact amount into the 2-decimal float the dashboard renders
func money(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// formatMoney renders an amount as prefix followed by two decimals, e.g. RM123.45
func formatMoney(prefix string, d decimal.Decimal) string {
	return prefix + d.StringFixed(2)
}
