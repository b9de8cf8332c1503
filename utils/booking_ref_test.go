package utils

import (
	"testing"
	"time"
)

func TestBuildBookingRef(t *testing.T) {
	at := time.Date(2025, time.January, 15, 14, 32, 9, 0, time.UTC)

	cases := []struct {
		initials string
		seq      int64
		want     string
	}{
		{"VM", 7, "VM151432-2501-007"},
		{"JS", 123, "JS151432-2501-123"},
		{"vm", 1, "VM151432-2501-001"}, // lowercased input normalizes
		{"", 2, "RS151432-2501-002"},   // fallback prefix
	}
	for _, tc := range cases {
		if got := BuildBookingRef(tc.initials, at, tc.seq); got != tc.want {
			t.Errorf("BuildBookingRef(%q, _, %d) = %q, want %q", tc.initials, tc.seq, got, tc.want)
		}
	}
}

func TestBuildBookingRefEncodesTimestamp(t *testing.T) {
	a := BuildBookingRef("VM", time.Date(2025, time.March, 1, 9, 5, 0, 0, time.UTC), 1)
	if a != "VM010905-2503-001" {
		t.Errorf("got %q", a)
	}
}

func TestDayKey(t *testing.T) {
	at := time.Date(2025, time.January, 15, 23, 59, 0, 0, time.UTC)
	if got := DayKey(at); got != "20250115" {
		t.Errorf("DayKey = %q, want 20250115", got)
	}
}
