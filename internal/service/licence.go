package service

import (
	"sort"
	"strings"
	"unicode"
)

// DistrictLength is the number of leading postcode characters compared
// against the licence area.
const DistrictLength = 4

// LicenceArea is the set of postcode districts pickups are licensed from.
// Destinations are never restricted.
type LicenceArea struct {
	districts map[string]struct{}
}

// NewLicenceArea builds an area from district prefixes such as "TN31".
func NewLicenceArea(districts ...string) LicenceArea {
	a := LicenceArea{districts: make(map[string]struct{}, len(districts))}
	for _, d := range districts {
		if d = NormalizePostcode(d); d != "" {
			a.districts[d] = struct{}{}
		}
	}
	return a
}

// DefaultLicenceDistricts are the Rother District Council pickup districts.
func DefaultLicenceDistricts() []string {
	return []string{"TN31", "TN32", "TN33", "TN36", "TN37", "TN38", "TN39", "TN40"}
}

// DefaultLicenceArea returns the Rother District Council licence area.
func DefaultLicenceArea() LicenceArea {
	return NewLicenceArea(DefaultLicenceDistricts()...)
}

// Contains reports whether postcode's district is licensed.
//
// The postcode is stripped of whitespace and upper-cased; its first four
// characters must equal one of the districts.
func (a LicenceArea) Contains(postcode string) bool {
	_, ok := a.districts[District(postcode)]
	return ok
}

// Districts returns the licensed districts in ascending order.
func (a LicenceArea) Districts() []string {
	out := make([]string, 0, len(a.districts))
	for d := range a.districts {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}

// NormalizePostcode removes all whitespace and upper-cases s.
func NormalizePostcode(s string) string {
	return strings.ToUpper(strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s))
}

// District returns the first four characters of the normalised postcode.
func District(postcode string) string {
	clean := NormalizePostcode(postcode)
	if len(clean) > DistrictLength {
		return clean[:DistrictLength]
	}
	return clean
}
