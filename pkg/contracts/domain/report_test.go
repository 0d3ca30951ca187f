package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell_Display(t *testing.T) {
	tests := []struct {
		name string
		cell Cell
		want string
	}{
		{"empty", Cell{}, ""},
		{"integer", IntCell(42), "42"},
		{"text", TextCell("Chuck 1"), "Chuck 1"},
		{"whole float keeps fraction", NumberCell(Some(2)), "2.0"},
		{"zero", NumberCell(Some(0)), "0.0"},
		{"negative", NumberCell(Some(-0.25)), "-0.25"},
		{"smallest positional", NumberCell(Some(0.0001)), "0.0001"},
		{"below 1e-4", NumberCell(Some(0.00001)), "1e-05"},
		{"fractional mantissa", NumberCell(Some(0.0000015)), "1.5e-06"},
		{"largest positional", NumberCell(Some(1234567890123456)), "1234567890123456.0"},
		{"from 1e16", NumberCell(Some(1e16)), "1e+16"},
		{"large mantissa", NumberCell(Some(1.25e20)), "1.25e+20"},
		{"shortest round trip", NumberCell(Some(0.1 + 0.2)), "0.30000000000000004"},
		{"absent", NumberCell(None()), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cell.Display())
		})
	}
}

func TestCell_DisplayNegativeExponent(t *testing.T) {
	assert.Equal(t, "-1e-07", NumberCell(Some(-math.Pow10(-7))).Display())
}
