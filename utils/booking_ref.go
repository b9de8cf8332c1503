package utils

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// EnvOrDefault returns ENV value or fallback default.
func EnvOrDefault(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

// PtrTime returns a pointer to t.
func PtrTime(t time.Time) *time.Time { return &t }

// BuildBookingRef assembles the human-decodable booking reference:
// resort initials + day/hour/minute + year/month + daily sequence.
// e.g. VM + 15 14 32 + 25 01 + 007 -> "VM151432-2501-007".
//
// The sequence is scoped to "reservations created today" and must come from
// an atomic counter (see services.DailySequencer) so two holds created in the
// same minute still get distinct references.
func BuildBookingRef(initials string, at time.Time, seq int64) string {
	initials = strings.ToUpper(strings.TrimSpace(initials))
	if initials == "" {
		initials = "RS"
	}
	return fmt.Sprintf("%s%02d%02d%02d-%02d%02d-%03d",
		initials,
		at.Day(), at.Hour(), at.Minute(),
		at.Year()%100, int(at.Month()),
		seq,
	)
}

// DayKey returns the per-day scope for the booking sequence counter.
func DayKey(at time.Time) string {
	return at.Format("20060102")
}
