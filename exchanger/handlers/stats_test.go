package handlers

import (
	"testing"
	"time"

	"github.com/m3rciful/exchanger/exchanger/storage"
)

func TestWindowStats(t *testing.T) {
	now, err := time.Parse("2006-01-02", "2026-09-01")
	if err != nil {
		t.Fatal(err)
	}
	records := []storage.ExchangeRecord{
		{Amount: "100", Date: storage.WeekStamp(now)},
		{Amount: "50", Date: storage.WeekStamp(now.AddDate(0, 0, -1))},  // same week, previous month
		{Amount: "25", Date: storage.WeekStamp(now.AddDate(0, 0, -14))}, // previous month
		{Amount: "7", Date: storage.WeekStamp(now.AddDate(0, 0, 10))},   // same month, later week
		{Amount: "bogus", Date: storage.WeekStamp(now)},
		{Amount: "1", Date: "garbage"},
	}

	count, total := windowStats(records, WindowDay, now)
	if count != 2 || total.String() != "100" {
		t.Fatalf("day window: count=%d total=%s", count, total)
	}

	count, total = windowStats(records, WindowWeek, now)
	if count != 3 || total.String() != "150" {
		t.Fatalf("week window: count=%d total=%s", count, total)
	}

	count, total = windowStats(records, WindowMonth, now)
	if count != 3 || total.String() != "107" {
		t.Fatalf("month window: count=%d total=%s", count, total)
	}
}

func TestStampInWindowRejectsMalformed(t *testing.T) {
	now := time.Now()
	for _, stamp := range []string{"", "short", "not-a-date-xx"} {
		if stampInWindow(stamp, WindowDay, now) {
			t.Errorf("stamp %q should not match any window", stamp)
		}
	}
}
