package geocoding

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryFromLocation(t *testing.T) {
	tests := []struct {
		location string
		want     string
	}{
		{"Brno", "Brno"},
		{"Brno, Jihomoravský kraj", "Brno"},
		{"Veveří 12, Brno", "Brno"},
		{"Cejl 68/112, Brno", "Brno"},
		{"Brno - Královo Pole", "Brno"},
		{"Masarykova 1a, Olomouc, okres Olomouc", "Olomouc"},
		{"okres Blansko", "Blansko"},
		{"kraj Vysočina", "Vysočina"},
		{"district Praha 4", "Praha 4"},
		{"  Kuřim , okres Brno-venkov", "Kuřim"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, QueryFromLocation(tt.location), "location %q", tt.location)
	}
}

func TestQueryFromLocationStreetNumberKeepsOnlySegment(t *testing.T) {
	// A single street-like segment has no fallback, so it is used as-is.
	assert.Equal(t, "Veveří 12", QueryFromLocation("Veveří 12"))
}
