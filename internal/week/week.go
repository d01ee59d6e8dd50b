package week

import "time"

// Weeks run Sunday through Saturday. All weekly counters and per-week
// sequence numbers key off the Sunday boundary computed here.

// StartOfWeek returns the most recent Sunday at midnight in t's location.
// Calling it for any instant inside the same week yields the same value.
func StartOfWeek(t time.Time) time.Time {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return midnight.AddDate(0, 0, -int(midnight.Weekday()))
}

// SameWeek reports whether a and b fall inside the same Sunday-aligned
// week. The week starts are compared as calendar dates, not instants, so
// a DATE read back from the store (UTC midnight) matches a local-time
// instant from the same week.
func SameWeek(a, b time.Time) bool {
	ay, am, ad := StartOfWeek(a).Date()
	by, bm, bd := StartOfWeek(b).Date()
	return ay == by && am == bm && ad == bd
}

// DaysBetween returns the whole calendar days from a to b, ignoring the
// time of day. Used for streak bookkeeping.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
