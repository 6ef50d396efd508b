package model

import "testing"

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"$50M", 50e6, true},
		{"$1.5B", 1.5e9, true},
		{"250K", 250e3, true},
		{"$1,000,000", 1e6, true},
		{"  $10m ", 10e6, true},
		{"50%", 0, false},
		{"Chubb", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMoney(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseMoney(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestIsLimitShorthand(t *testing.T) {
	for _, s := range []string{"$50M", "$100K", "$1B", "$2.5M"} {
		if !IsLimitShorthand(s) {
			t.Errorf("IsLimitShorthand(%q) = false, want true", s)
		}
	}
	for _, s := range []string{"$1,000,000", "50M", "$50", "xs"} {
		if IsLimitShorthand(s) {
			t.Errorf("IsLimitShorthand(%q) = true, want false", s)
		}
	}
}

func TestFormatLimit(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{50e6, "$50M"},
		{2.5e6, "$2.5M"},
		{1e9, "$1B"},
		{250e3, "$250K"},
		{500, "$500"},
	}
	for _, tt := range tests {
		if got := FormatLimit(tt.in); got != tt.want {
			t.Errorf("FormatLimit(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseExcess(t *testing.T) {
	tests := []struct {
		in         string
		limit      float64
		attachment float64
		ok         bool
	}{
		{"$25M xs $25M", 25e6, 25e6, true},
		{"10M x/s 40M", 10e6, 40e6, true},
		{"$5M excess of $10M", 5e6, 10e6, true},
		{"$15M xs. $85M", 15e6, 85e6, true},
		{"Layer 2: $25M xs $25M primary", 25e6, 25e6, true},
		{"$50M", 0, 0, false},
		{"Chubb Bermuda", 0, 0, false},
	}
	for _, tt := range tests {
		limit, attachment, ok := ParseExcess(tt.in)
		if ok != tt.ok || limit != tt.limit || attachment != tt.attachment {
			t.Errorf("ParseExcess(%q) = (%v, %v, %v), want (%v, %v, %v)",
				tt.in, limit, attachment, ok, tt.limit, tt.attachment, tt.ok)
		}
	}
}
