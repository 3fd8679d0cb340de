package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLicenceArea_Contains(t *testing.T) {
	area := DefaultLicenceArea()

	tests := []struct {
		postcode string
		want     bool
	}{
		{"TN31 7AB", true},
		{"tn31 7ab", true},
		{"  TN40 1AA  ", true},
		{"TN3 17AB", true}, // whitespace is stripped before taking the district
		{"TN34 1AA", false},
		{"BN1 1AA", false},
		{"TN3", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.postcode, func(t *testing.T) {
			assert.Equal(t, tt.want, area.Contains(tt.postcode))
		})
	}
}

func TestLicenceArea_Districts(t *testing.T) {
	area := NewLicenceArea("tn40", "TN31", " tn36 ", "", "TN31")
	assert.Equal(t, []string{"TN31", "TN36", "TN40"}, area.Districts())
	assert.Len(t, DefaultLicenceArea().Districts(), 8)
}

func TestDistrict(t *testing.T) {
	assert.Equal(t, "TN31", District(" tn31 7ab"))
	assert.Equal(t, "BN1", District("BN1"))
	assert.Equal(t, "TN317AB", NormalizePostcode("tn31\t7ab "))
}
