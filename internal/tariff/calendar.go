package tariff

import (
	"fmt"
	"sort"
	"time"
)

// DateLayout is the ISO calendar date format used for holiday lookups.
const DateLayout = "2006-01-02"

// Calendar is an explicit set of bank-holiday dates partitioned by year.
//
// Membership is exact string matching on YYYY-MM-DD. Years without an entry
// have no holidays at all; no recurrence rules are evaluated.
type Calendar struct {
	years map[int]map[string]struct{}
}

// NewCalendar builds a calendar from ISO dates. Every date must parse.
func NewCalendar(dates ...string) (Calendar, error) {
	c := Calendar{years: make(map[int]map[string]struct{})}
	for _, d := range dates {
		t, err := time.Parse(DateLayout, d)
		if err != nil {
			return Calendar{}, fmt.Errorf("bank holiday %q: %w", d, err)
		}
		set, ok := c.years[t.Year()]
		if !ok {
			set = make(map[string]struct{})
			c.years[t.Year()] = set
		}
		set[d] = struct{}{}
	}
	return c, nil
}

// DefaultCalendar returns the England & Wales bank holidays for 2025 and 2026.
func DefaultCalendar() Calendar {
	c, err := NewCalendar(DefaultBankHolidays()...)
	if err != nil {
		panic(err)
	}
	return c
}

// DefaultBankHolidays lists the configured holiday dates.
func DefaultBankHolidays() []string {
	return []string{
		"2025-01-01", "2025-04-18", "2025-04-21", "2025-05-05",
		"2025-05-26", "2025-08-25", "2025-12-25", "2025-12-26",

		"2026-01-01", "2026-04-03", "2026-04-06", "2026-05-04",
		"2026-05-25", "2026-08-31", "2026-12-25", "2026-12-28",
	}
}

// Contains reports whether the exact date string is a holiday.
func (c Calendar) Contains(date string) bool {
	for _, set := range c.years {
		if _, ok := set[date]; ok {
			return true
		}
	}
	return false
}

// IsHoliday reports whether t's calendar date is a holiday.
func (c Calendar) IsHoliday(t time.Time) bool {
	set, ok := c.years[t.Year()]
	if !ok {
		return false
	}
	_, ok = set[t.Format(DateLayout)]
	return ok
}

// Covers reports whether the calendar has any dates for year.
func (c Calendar) Covers(year int) bool {
	_, ok := c.years[year]
	return ok
}

// Years returns the configured years in ascending order.
func (c Calendar) Years() []int {
	years := make([]int, 0, len(c.years))
	for y := range c.years {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// Dates returns every holiday in ascending order.
func (c Calendar) Dates() []string {
	var out []string
	for _, set := range c.years {
		for d := range set {
			out = append(out, d)
		}
	}
	sort.Strings(out)
	return out
}
