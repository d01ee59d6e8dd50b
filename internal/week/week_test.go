package week

import (
	"testing"
	"time"
)

func TestStartOfWeekReturnsSunday(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "wednesday maps back to sunday",
			now:  time.Date(2025, 6, 18, 15, 30, 0, 0, time.UTC),
			want: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday maps to itself at midnight",
			now:  time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC),
			want: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "saturday maps back six days",
			now:  time.Date(2025, 6, 21, 0, 0, 1, 0, time.UTC),
			want: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "boundary across month start",
			now:  time.Date(2025, 7, 1, 8, 0, 0, 0, time.UTC),
			want: time.Date(2025, 6, 29, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := StartOfWeek(tc.now)
			if !got.Equal(tc.want) {
				t.Errorf("StartOfWeek(%v) = %v, want %v", tc.now, got, tc.want)
			}
			if got.Weekday() != time.Sunday {
				t.Errorf("StartOfWeek(%v) is a %v, want Sunday", tc.now, got.Weekday())
			}
		})
	}
}

func TestStartOfWeekStableWithinWeek(t *testing.T) {
	// Repeated calls across the same week must agree.
	base := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) // a Sunday
	want := StartOfWeek(base)
	for d := 0; d < 7; d++ {
		now := base.AddDate(0, 0, d).Add(13 * time.Hour)
		if got := StartOfWeek(now); !got.Equal(want) {
			t.Errorf("day %d: StartOfWeek = %v, want %v", d, got, want)
		}
	}
	next := base.AddDate(0, 0, 7)
	if StartOfWeek(next).Equal(want) {
		t.Error("next sunday must start a new week")
	}
}

func TestSameWeek(t *testing.T) {
	sat := time.Date(2025, 6, 21, 22, 0, 0, 0, time.UTC)
	sun := time.Date(2025, 6, 22, 2, 0, 0, 0, time.UTC)
	if SameWeek(sat, sun) {
		t.Error("saturday night and the following sunday are different weeks")
	}
	if !SameWeek(sat, sat.Add(-6*24*time.Hour)) {
		t.Error("saturday and the preceding sunday are the same week")
	}
}

func TestSameWeekAcrossTimezones(t *testing.T) {
	// A stored week start decodes as UTC midnight; activity timestamps
	// carry the server zone. The same Sunday-aligned week must match
	// regardless of the offset between the two.
	est := time.FixedZone("EST-ish", -4*60*60)

	storedSunday := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)
	localWednesday := time.Date(2025, 6, 18, 12, 0, 0, 0, est)
	if !SameWeek(storedSunday, localWednesday) {
		t.Error("same Sunday-aligned week reported as a rollover")
	}

	// Late Saturday local time is still the stored week.
	localSaturday := time.Date(2025, 6, 21, 23, 30, 0, 0, est)
	if !SameWeek(storedSunday, localSaturday) {
		t.Error("local saturday night fell out of the stored week")
	}

	// The next local Sunday is a new week.
	nextSunday := time.Date(2025, 6, 22, 1, 0, 0, 0, est)
	if SameWeek(storedSunday, nextSunday) {
		t.Error("next week's sunday matched the stored week")
	}
}

func TestDaysBetween(t *testing.T) {
	a := time.Date(2025, 6, 18, 23, 50, 0, 0, time.UTC)
	b := time.Date(2025, 6, 19, 0, 10, 0, 0, time.UTC)
	if got := DaysBetween(a, b); got != 1 {
		t.Errorf("DaysBetween across midnight = %d, want 1", got)
	}
	if got := DaysBetween(b, b); got != 0 {
		t.Errorf("DaysBetween same day = %d, want 0", got)
	}
}
