// Package tariff selects the published taxi tariff for a travel moment.
package tariff

import (
	"fmt"

	"github.com/villagetaxi/farequote/internal/model"
)

// Published increment distances (Rother District Council, 24 April 2023).
const (
	FirstMileYards = 138.1
	AfterMileYards = 167.6
)

// Table is the fixed set of three tariffs.
type Table struct {
	Standard model.Tariff // Tariff 1
	Enhanced model.Tariff // Tariff 2: night, Sunday, bank holiday, holiday eve
	Festive  model.Tariff // Tariff 3: Christmas Day, Boxing Day, New Year's Day
}

// DefaultTable returns the published Rother District Council fare table.
func DefaultTable() Table {
	return Table{
		Standard: model.Tariff{
			ID:             model.Tariff1,
			Name:           "Tariff 1 (Standard)",
			FlagFall:       330,
			IncrementRate:  20,
			FirstMileYards: FirstMileYards,
			AfterMileYards: AfterMileYards,
		},
		Enhanced: model.Tariff{
			ID:             model.Tariff2,
			Name:           "Tariff 2 (Night/Sunday/Holiday)",
			FlagFall:       480,
			IncrementRate:  30,
			FirstMileYards: FirstMileYards,
			AfterMileYards: AfterMileYards,
		},
		Festive: model.Tariff{
			ID:             model.Tariff3,
			Name:           "Tariff 3 (Christmas/Boxing/New Year)",
			FlagFall:       640,
			IncrementRate:  40,
			FirstMileYards: FirstMileYards,
			AfterMileYards: AfterMileYards,
		},
	}
}

// All returns the tariffs in ascending order.
func (t Table) All() []model.Tariff {
	return []model.Tariff{t.Standard, t.Enhanced, t.Festive}
}

// Get returns the tariff with the given id.
func (t Table) Get(id model.TariffID) (model.Tariff, bool) {
	for _, tr := range t.All() {
		if tr.ID == id {
			return tr, true
		}
	}
	return model.Tariff{}, false
}

// Validate checks every tariff in the table.
func (t Table) Validate() error {
	want := []model.TariffID{model.Tariff1, model.Tariff2, model.Tariff3}
	for i, tr := range t.All() {
		if tr.ID != want[i] {
			return fmt.Errorf("tariff table: slot %d holds %q, want %q", i+1, tr.ID, want[i])
		}
		if err := tr.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Description returns the customer-facing summary of when a tariff applies.
func Description(id model.TariffID) string {
	switch id {
	case model.Tariff1:
		return "Standard rate (Mon-Sat, 06:00-23:00)"
	case model.Tariff2:
		return "Night, Sunday or Bank Holiday rate"
	case model.Tariff3:
		return "Christmas / New Year rate"
	default:
		return ""
	}
}
