package tariff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/villagetaxi/farequote/internal/model"
)

// ---------------------------------------------------------------------------
// Test Helpers
// ---------------------------------------------------------------------------

func at(t *testing.T, date, clock string) time.Time {
	t.Helper()
	m, err := ParseMoment(date, clock, time.UTC)
	require.NoError(t, err)
	return m
}

// ---------------------------------------------------------------------------
// Selection chain
// ---------------------------------------------------------------------------

func TestEngine_Select(t *testing.T) {
	engine := NewEngine(DefaultTable(), DefaultCalendar())

	tests := []struct {
		name      string
		date      string
		clock     string
		wantLabel string
		wantID    model.TariffID
		branch    Branch
	}{
		{"christmas day morning", "2025-12-25", "09:00", "Tariff 3 (Christmas Period)", model.Tariff3, BranchChristmas},
		{"christmas day night", "2025-12-25", "23:30", "Tariff 3 (Christmas Period)", model.Tariff3, BranchChristmas},
		{"boxing day", "2026-12-26", "14:00", "Tariff 3 (Christmas Period)", model.Tariff3, BranchChristmas},
		{"new year's day outside calendar years", "2031-01-01", "03:00", "Tariff 3 (Christmas Period)", model.Tariff3, BranchChristmas},
		{"new year's eve 18:00", "2025-12-31", "18:00", "Tariff 2 (Holiday Eve)", model.Tariff2, BranchHolidayEve},
		{"new year's eve late evening beats night", "2025-12-31", "23:15", "Tariff 2 (Holiday Eve)", model.Tariff2, BranchHolidayEve},
		{"christmas eve 17:59 is standard", "2025-12-24", "17:59", "Tariff 1 (Standard)", model.Tariff1, BranchStandard},
		{"christmas eve early morning is night", "2025-12-24", "05:00", "Tariff 2 (Night-time)", model.Tariff2, BranchNight},
		{"hour 23", "2025-06-17", "23:00", "Tariff 2 (Night-time)", model.Tariff2, BranchNight},
		{"hour 5", "2025-06-17", "05:59", "Tariff 2 (Night-time)", model.Tariff2, BranchNight},
		{"hour 6 is day", "2025-06-17", "06:00", "Tariff 1 (Standard)", model.Tariff1, BranchStandard},
		{"sunday night labelled night", "2025-06-15", "23:00", "Tariff 2 (Night-time)", model.Tariff2, BranchNight},
		{"sunday 10:00", "2025-06-15", "10:00", "Tariff 2 (Sunday/Holiday)", model.Tariff2, BranchSundayHoliday},
		{"spring bank holiday", "2025-05-26", "10:00", "Tariff 2 (Sunday/Holiday)", model.Tariff2, BranchSundayHoliday},
		{"substitute boxing day 2026", "2026-12-28", "12:00", "Tariff 2 (Sunday/Holiday)", model.Tariff2, BranchSundayHoliday},
		{"plain tuesday 14:00", "2025-06-17", "14:00", "Tariff 1 (Standard)", model.Tariff1, BranchStandard},
		{"early may monday outside calendar years", "2027-05-03", "10:00", "Tariff 1 (Standard)", model.Tariff1, BranchStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Select(at(t, tt.date, tt.clock))
			assert.Equal(t, tt.wantLabel, got.Label)
			assert.Equal(t, tt.wantID, got.Tariff.ID)
			assert.Equal(t, tt.branch, got.Branch)
		})
	}
}

func TestSelection_HeadingAndDescription(t *testing.T) {
	engine := NewEngine(DefaultTable(), DefaultCalendar())

	sel := engine.Select(at(t, "2025-06-15", "10:00"))
	assert.Equal(t, "Tariff 2", sel.Heading())
	assert.Equal(t, "Night, Sunday or Bank Holiday rate", sel.Description())

	sel = engine.Select(at(t, "2025-06-17", "10:00"))
	assert.Equal(t, "Tariff 1", sel.Heading())
	assert.Equal(t, "Standard rate (Mon-Sat, 06:00-23:00)", sel.Description())
}

func TestEngine_UsesInjectedCalendar(t *testing.T) {
	cal, err := NewCalendar("2027-05-03")
	require.NoError(t, err)
	engine := NewEngine(DefaultTable(), cal)

	got := engine.Select(at(t, "2027-05-03", "10:00"))
	assert.Equal(t, BranchSundayHoliday, got.Branch)
}

// ---------------------------------------------------------------------------
// Parsing
// ---------------------------------------------------------------------------

func TestParseMoment(t *testing.T) {
	london, err := time.LoadLocation("Europe/London")
	require.NoError(t, err)

	m, err := ParseMoment("2025-07-01", "18:30", london)
	require.NoError(t, err)
	assert.Equal(t, 18, m.Hour())
	assert.Equal(t, london, m.Location())

	m, err = ParseMoment(" 2025-07-01 ", "07:05:09", time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 7, m.Hour())

	for _, bad := range [][2]string{
		{"2025-13-01", "10:00"},
		{"01/07/2025", "10:00"},
		{"2025-07-01", "25:00"},
		{"2025-07-01", ""},
	} {
		_, err := ParseMoment(bad[0], bad[1], time.UTC)
		assert.Error(t, err, "date=%q time=%q", bad[0], bad[1])
	}
}

// ---------------------------------------------------------------------------
// Table and calendar
// ---------------------------------------------------------------------------

func TestDefaultTable_Valid(t *testing.T) {
	table := DefaultTable()
	require.NoError(t, table.Validate())

	tr, ok := table.Get(model.Tariff2)
	require.True(t, ok)
	assert.Equal(t, model.Pence(480), tr.FlagFall)
	assert.Equal(t, model.Pence(30), tr.IncrementRate)

	_, ok = table.Get("tariff9")
	assert.False(t, ok)
}

func TestTable_ValidateRejectsBadTariff(t *testing.T) {
	table := DefaultTable()
	table.Festive.FirstMileYards = 1760
	assert.Error(t, table.Validate())

	table = DefaultTable()
	table.Standard, table.Enhanced = table.Enhanced, table.Standard
	assert.Error(t, table.Validate())
}

func TestCalendar(t *testing.T) {
	cal := DefaultCalendar()

	assert.Equal(t, []int{2025, 2026}, cal.Years())
	assert.True(t, cal.Covers(2026))
	assert.False(t, cal.Covers(2027))
	assert.True(t, cal.Contains("2025-08-25"))
	assert.False(t, cal.Contains("2025-8-25"))
	assert.False(t, cal.Contains("2027-08-30"))
	assert.Len(t, cal.Dates(), 16)

	_, err := NewCalendar("2025-02-30")
	assert.Error(t, err)
}
