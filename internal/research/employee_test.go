package research

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseEmployeeCount(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"plain number", "1200", 1200},
		{"number with year", "1200 (2023)", 1200},
		{"large with year", "182502 (2023)", 182502},
		{"commas stripped", "1,200", 1200},
		{"surrounding words", "approximately 350 employees", 350},
		{"no digits", "unknown", 1},
		{"empty", "", 1},
		{"zero", "0", 1},
		{"negative-looking", "-50", 50},
		{"above range", "50000000", 1},
		{"at upper bound", "10000000", 10000000},
		{"at lower bound", "1", 1},
		{"year only inside parens ignored", "500 (as of 2022)", 500},
		{"digits after parens ignored", "500 (2022) revised to 600", 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseEmployeeCount(tt.raw, "Acme Corp"))
		})
	}
}
