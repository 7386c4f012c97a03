package landlord

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseYesNo(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"Yes", true},
		{"YES", true},
		{"y", true},
		{"TRUE", true},
		{"true", true},
		{"1", true},
		{" yes ", true},
		{"No", false},
		{"n", false},
		{"FALSE", false},
		{"0", false},
		{"", false},
		{"maybe", false}, // unrecognized defaults to false, no error
		{"2", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, parseYesNo(tt.in), "input %q", tt.in)
	}
}

func TestParseNonNegativeInt(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"0", 0, true},
		{"3", 3, true},
		{" 2 ", 2, true},
		{"2.0", 2, true}, // spreadsheet float-ified integer
		{"", 0, false},
		{"-1", 0, false},
		{"1.5", 0, false},
		{"abc", 0, false},
		{"No", 0, false},
	}

	for _, tt := range tests {
		got, ok := parseNonNegativeInt(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"500", "500", true},
		{"500.50", "500.5", true},
		{"650,75", "650.75", true},    // decimal comma
		{"1.234,56", "1234.56", true}, // thousands dot + decimal comma
		{"0", "0", true},
		{"", "", false},
		{"-100", "", false},
		{"abc", "", false},
	}

	for _, tt := range tests {
		got, ok := parseMoney(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		if tt.wantOK {
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)),
				"input %q: got %s want %s", tt.in, got, tt.want)
		}
	}
}

func TestParsePaymentDay(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"15", 15, true},
		{"15.0", 15, true},
		{"31", 31, true},
		{"35", 35, true}, // range check is the caller's job
		{"15-06-2026", 15, true},
		{"2026-06-15", 15, true},
		{"15/06/2026", 15, true},
		{"", 0, false},
		{"abc", 0, false},
		{"paid", 0, false},
	}

	for _, tt := range tests {
		got, ok := parsePaymentDay(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}
