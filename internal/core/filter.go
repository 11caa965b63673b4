package core

import (
	"strings"
	"time"
)

// MatchesMerchant is a case-insensitive substring match on the trimmed
// query; a blank query matches every merchant.
func MatchesMerchant(t Transaction, query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(t.Merchant), strings.ToLower(query))
}

// FilterTransactions applies the merchant filter and then the calendar-day
// filter, preserving input order.
func FilterTransactions(txs []Transaction, f Filters, loc *time.Location) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if !MatchesMerchant(t, f.Merchant) {
			continue
		}
		if !f.Date.IsZero() && !SameCalendarDay(t.Date, f.Date, loc) {
			continue
		}
		out = append(out, t)
	}
	return out
}
