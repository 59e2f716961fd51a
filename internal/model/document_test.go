package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_RelevanceScore(t *testing.T) {
	tests := []struct {
		name  string
		score any
		want  float64
		ok    bool
	}{
		{"float64", 0.85, 0.85, true},
		{"float32", float32(0.5), 0.5, true},
		{"int", 1, 1.0, true},
		{"json number", json.Number("0.72"), 0.72, true},
		{"numeric string", "0.9", 0.9, true},
		{"non-numeric string", "high", 0, false},
		{"absent", nil, 0, false},
		{"wrong type", []string{"0.5"}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Document{Score: tt.score}
			got, ok := d.RelevanceScore()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestDocument_EmployeeCountValue(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int
		ok    bool
	}{
		{"int", 1200, 1200, true},
		{"float64", 1200.0, 1200, true},
		{"string", "350", 350, true},
		{"json number", json.Number("42"), 42, true},
		{"absent", nil, 0, false},
		{"garbage", "unknown", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Document{EmployeeCount: tt.value}
			got, ok := d.EmployeeCountValue()
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestValidEmployeeCount(t *testing.T) {
	assert.True(t, ValidEmployeeCount(1))
	assert.True(t, ValidEmployeeCount(10_000_000))
	assert.False(t, ValidEmployeeCount(0))
	assert.False(t, ValidEmployeeCount(-5))
	assert.False(t, ValidEmployeeCount(10_000_001))
}
