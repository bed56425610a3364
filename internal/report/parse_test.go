package report

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "总盈亏", "总盈亏"},
		{"bidi marks", "\u200e−5.20%\u200f", "−5.20%"},
		{"isolates", "\u2066Sharpe Ratio\u2069", "Sharpe Ratio"},
		{"collapse", "  Total \n\t trades  ", "Total trades"},
		{"nbsp", "1\u00a0234", "1 234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"−5.2%", -5.2},
		{"－5.2％", -5.2},
		{"–7%", -7},
		{"+13.45%", 13.45},
		{"＋20％", 20},
		{"1,234.5%", 1234.5},
		{"\u200e-3.1%\u200f", -3.1},
		{"42.5 USD 3.2%", 42.5},
		{"1.2.3%", 1.2},
		{"12,345.67.8%", 12345.67},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParsePercent(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParsePercent(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParsePercentNaN(t *testing.T) {
	for _, in := range []string{"", "—", "N/A", "%"} {
		if got := ParsePercent(in); !math.IsNaN(got) {
			t.Errorf("ParsePercent(%q) = %v, want NaN", in, got)
		}
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"1,234.5", 1234.5},
		{"12,3", 12.3},
		{"−0.85", -0.85},
		{"1 234.5", 1234.5},
		{"2.017", 2.017},
		{"\u200e1.45\u200f", 1.45},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseNumber(tt.in)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseNumberNaN(t *testing.T) {
	for _, in := range []string{"", "N/A", "—", "abc"} {
		if got := ParseNumber(in); !math.IsNaN(got) {
			t.Errorf("ParseNumber(%q) = %v, want NaN", in, got)
		}
	}
}
