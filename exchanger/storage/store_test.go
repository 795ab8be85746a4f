package storage

import (
	"testing"
	"time"
)

func TestWeekStamp(t *testing.T) {
	cases := []struct {
		date string
		want string
	}{
		{"2026-09-01", "2026-09-01-36"},
		{"2026-01-01", "2026-01-01-1"},
		// December 29th 2025 belongs to ISO week 1 of 2026.
		{"2025-12-29", "2025-12-29-1"},
	}
	for _, tc := range cases {
		day, err := time.Parse("2006-01-02", tc.date)
		if err != nil {
			t.Fatal(err)
		}
		if got := WeekStamp(day); got != tc.want {
			t.Errorf("WeekStamp(%s) = %q, want %q", tc.date, got, tc.want)
		}
	}
}
