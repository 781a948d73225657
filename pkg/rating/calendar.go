package rating

import "time"

// HolidayCalendar reports non-working dates for business-day arithmetic.
type HolidayCalendar interface {
	IsHoliday(t time.Time) bool
}

// CarrierHolidayCalendar is the carrier's observed holiday set, computed
// per year: Jan 1, Jul 4, Dec 25, Memorial Day, Labor Day, Thanksgiving.
type CarrierHolidayCalendar struct{}

// IsHoliday reports whether t falls on a carrier holiday.
func (CarrierHolidayCalendar) IsHoliday(t time.Time) bool {
	for _, h := range carrierHolidays(t.Year()) {
		if sameDate(t, h) {
			return true
		}
	}
	return false
}

func carrierHolidays(year int) []time.Time {
	return []time.Time{
		time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.July, 4, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.December, 25, 0, 0, 0, 0, time.UTC),
		lastWeekdayOf(year, time.May, time.Monday),          // Memorial Day
		nthWeekdayOf(year, time.September, time.Monday, 1),  // Labor Day
		nthWeekdayOf(year, time.November, time.Thursday, 4), // Thanksgiving
	}
}

func nthWeekdayOf(year int, month time.Month, weekday time.Weekday, n int) time.Time {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	for t.Weekday() != weekday {
		t = t.AddDate(0, 0, 1)
	}
	return t.AddDate(0, 0, 7*(n-1))
}

func lastWeekdayOf(year int, month time.Month, weekday time.Weekday) time.Time {
	// Last day of month, walk backwards.
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	for t.Weekday() != weekday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// StoreHolidayCalendar is an explicit closed-date list from configuration.
type StoreHolidayCalendar struct {
	dates map[string]bool
}

// NewStoreHolidayCalendar parses YYYY-MM-DD dates; malformed entries are
// ignored.
func NewStoreHolidayCalendar(dates []string) *StoreHolidayCalendar {
	set := make(map[string]bool, len(dates))
	for _, d := range dates {
		if _, err := time.Parse("2006-01-02", d); err == nil {
			set[d] = true
		}
	}
	return &StoreHolidayCalendar{dates: set}
}

// IsHoliday reports whether t is a configured closed date.
func (c *StoreHolidayCalendar) IsHoliday(t time.Time) bool {
	return c.dates[t.Format("2006-01-02")]
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func isBusinessDay(t time.Time, cal HolidayCalendar) bool {
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return cal == nil || !cal.IsHoliday(t)
}

// addBusinessDays rolls t forward to a business day, then advances the
// required count of business days one calendar day at a time. A date that is
// both a weekend day and a holiday is skipped as a single day.
func addBusinessDays(t time.Time, days int, cal HolidayCalendar) time.Time {
	for !isBusinessDay(t, cal) {
		t = t.AddDate(0, 0, 1)
	}
	for counted := 0; counted < days; {
		t = t.AddDate(0, 0, 1)
		if isBusinessDay(t, cal) {
			counted++
		}
	}
	return t
}
