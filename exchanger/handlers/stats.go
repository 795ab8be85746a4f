package handlers

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/exchanger/exchanger/storage"
)

// Statistics windows.
const (
	WindowDay   = "day"
	WindowWeek  = "week"
	WindowMonth = "month"
)

// windowStats aggregates exchange history rows whose date stamp falls inside
// the window. Rows with unparseable amounts still count but add nothing to
// the total.
func windowStats(records []storage.ExchangeRecord, window string, now time.Time) (int, decimal.Decimal) {
	count := 0
	total := decimal.Zero
	for _, rec := range records {
		if !stampInWindow(rec.Date, window, now) {
			continue
		}
		count++
		if amount, err := decimal.NewFromString(rec.Amount); err == nil {
			total = total.Add(amount)
		}
	}
	return count, total
}

// stampInWindow matches a YYYY-MM-DD-<ISO week> stamp against a window.
func stampInWindow(stamp, window string, now time.Time) bool {
	if len(stamp) < 10 {
		return false
	}
	day, err := time.Parse("2006-01-02", stamp[:10])
	if err != nil {
		return false
	}
	switch window {
	case WindowDay:
		return stamp[:10] == now.Format("2006-01-02")
	case WindowWeek:
		y1, w1 := day.ISOWeek()
		y2, w2 := now.ISOWeek()
		return y1 == y2 && w1 == w2
	case WindowMonth:
		return strings.HasPrefix(stamp, now.Format("2006-01"))
	}
	return false
}
