package tariff

import (
	"fmt"
	"strings"
	"time"

	"github.com/villagetaxi/farequote/internal/model"
)

// Branch names the rule of the selection chain that matched.
type Branch string

const (
	BranchChristmas     Branch = "christmas"
	BranchHolidayEve    Branch = "holiday_eve"
	BranchNight         Branch = "night"
	BranchSundayHoliday Branch = "sunday_holiday"
	BranchStandard      Branch = "standard"
)

// Hours bounding the night tariff: [NightStartHour, 24) ∪ [0, NightEndHour).
const (
	NightStartHour = 23
	NightEndHour   = 6
	EveStartHour   = 18
)

// Selection is the tariff chosen for a travel moment.
type Selection struct {
	Label  string       `json:"label"`
	Branch Branch       `json:"branch"`
	Tariff model.Tariff `json:"tariff"`
}

// Heading returns the label without its parenthesised reason ("Tariff 2").
func (s Selection) Heading() string {
	head, _, _ := strings.Cut(s.Label, " (")
	return head
}

// Description returns the customer-facing summary of the tariff.
func (s Selection) Description() string {
	return Description(s.Tariff.ID)
}

// Engine maps a travel moment to the applicable tariff.
type Engine struct {
	table    Table
	calendar Calendar
}

// NewEngine creates an engine over an immutable table and calendar.
func NewEngine(table Table, calendar Calendar) *Engine {
	return &Engine{table: table, calendar: calendar}
}

// Table returns the engine's tariff table.
func (e *Engine) Table() Table { return e.table }

// Calendar returns the engine's holiday calendar.
func (e *Engine) Calendar() Calendar { return e.calendar }

// Select returns the tariff for moment. Only the calendar date, weekday and
// hour of moment are inspected, in moment's own location.
//
// The rules form a priority chain; the first match wins:
//
//	1. 25 Dec, 26 Dec, 1 Jan (any hour)         → Tariff 3
//	2. 24 Dec or 31 Dec from 18:00              → Tariff 2 (holiday eve)
//	3. 23:00–05:59                              → Tariff 2 (night)
//	4. Sunday or calendar bank holiday          → Tariff 2 (Sunday/holiday)
//	5. otherwise                                → Tariff 1
func (e *Engine) Select(moment time.Time) Selection {
	_, month, day := moment.Date()
	hour := moment.Hour()

	switch {
	case (month == time.December && (day == 25 || day == 26)) || (month == time.January && day == 1):
		return Selection{Label: "Tariff 3 (Christmas Period)", Branch: BranchChristmas, Tariff: e.table.Festive}

	case month == time.December && (day == 24 || day == 31) && hour >= EveStartHour:
		return Selection{Label: "Tariff 2 (Holiday Eve)", Branch: BranchHolidayEve, Tariff: e.table.Enhanced}

	case hour >= NightStartHour || hour < NightEndHour:
		return Selection{Label: "Tariff 2 (Night-time)", Branch: BranchNight, Tariff: e.table.Enhanced}

	case moment.Weekday() == time.Sunday || e.calendar.IsHoliday(moment):
		return Selection{Label: "Tariff 2 (Sunday/Holiday)", Branch: BranchSundayHoliday, Tariff: e.table.Enhanced}

	default:
		return Selection{Label: "Tariff 1 (Standard)", Branch: BranchStandard, Tariff: e.table.Standard}
	}
}

// ParseMoment combines an ISO date ("2025-12-24") and a 24-hour clock time
// ("18:30" or "18:30:00") into a moment in loc.
func ParseMoment(date, clock string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	date = strings.TrimSpace(date)
	clock = strings.TrimSpace(clock)

	for _, layout := range []string{DateLayout + " 15:04", DateLayout + " 15:04:05"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid travel date/time %q %q", date, clock)
}
