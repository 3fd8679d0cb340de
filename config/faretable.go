package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/villagetaxi/farequote/internal/model"
	"github.com/villagetaxi/farequote/internal/tariff"
)

// FareTableFile is an optional YAML override of the published fare rules.
//
//	tariffs:
//	  tariff1: {name: "Tariff 1 (Standard)", flag_fall: 3.30, increment_rate: 0.20,
//	            first_mile_yards: 138.1, after_mile_yards: 167.6}
//	bank_holidays: ["2027-01-01", "2027-03-26"]
//	licence_districts: [TN31, TN32]
//	road_factor: 1.4
//
// Sections left out keep their built-in defaults.
type FareTableFile struct {
	Tariffs          map[string]TariffEntry `mapstructure:"tariffs"`
	BankHolidays     []string               `mapstructure:"bank_holidays"`
	LicenceDistricts []string               `mapstructure:"licence_districts"`
	RoadFactor       float64                `mapstructure:"road_factor"`
}

// TariffEntry is one tariff as written in the file, in pounds and yards.
type TariffEntry struct {
	Name           string  `mapstructure:"name"`
	FlagFall       float64 `mapstructure:"flag_fall"`
	IncrementRate  float64 `mapstructure:"increment_rate"`
	FirstMileYards float64 `mapstructure:"first_mile_yards"`
	AfterMileYards float64 `mapstructure:"after_mile_yards"`
}

// LoadFareTable reads a fare table file. An empty path yields an empty
// override.
func LoadFareTable(path string) (*FareTableFile, error) {
	f := &FareTableFile{}
	if path == "" {
		return f, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("fare table: read %s: %w", path, err)
	}
	if err := v.Unmarshal(f); err != nil {
		return nil, fmt.Errorf("fare table: decode %s: %w", path, err)
	}
	return f, nil
}

// Table overlays the file's tariffs onto base and validates the result.
func (f *FareTableFile) Table(base tariff.Table) (tariff.Table, error) {
	out := base
	slots := map[model.TariffID]*model.Tariff{
		model.Tariff1: &out.Standard,
		model.Tariff2: &out.Enhanced,
		model.Tariff3: &out.Festive,
	}
	for key, e := range f.Tariffs {
		slot, ok := slots[model.TariffID(key)]
		if !ok {
			return tariff.Table{}, fmt.Errorf("fare table: unknown tariff %q", key)
		}
		prev := *slot
		*slot = model.Tariff{
			ID:             model.TariffID(key),
			Name:           e.Name,
			FlagFall:       model.PenceFromPounds(e.FlagFall),
			IncrementRate:  model.PenceFromPounds(e.IncrementRate),
			FirstMileYards: e.FirstMileYards,
			AfterMileYards: e.AfterMileYards,
		}
		if slot.Name == "" {
			slot.Name = prev.Name
		}
	}
	if err := out.Validate(); err != nil {
		return tariff.Table{}, fmt.Errorf("fare table: %w", err)
	}
	return out, nil
}

// Calendar returns the file's holiday calendar, or base when none is given.
func (f *FareTableFile) Calendar(base tariff.Calendar) (tariff.Calendar, error) {
	if len(f.BankHolidays) == 0 {
		return base, nil
	}
	cal, err := tariff.NewCalendar(f.BankHolidays...)
	if err != nil {
		return tariff.Calendar{}, fmt.Errorf("fare table: %w", err)
	}
	return cal, nil
}

// Districts returns the file's licence districts, or base when none are given.
func (f *FareTableFile) Districts(base []string) []string {
	if len(f.LicenceDistricts) == 0 {
		return base
	}
	return f.LicenceDistricts
}
