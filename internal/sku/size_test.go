package sku

import "testing"

func TestParseSize(t *testing.T) {
	cases := []struct {
		size string
		want float64
	}{
		{"2.5 lb bag", 2.5},
		{"12 oz", 12},
		{"500g", 500},
		{"about 3", 3},
		{"", 1},
		{"each", 1},
		{"0 oz", 1},
	}
	for _, tc := range cases {
		if got := ParseSize(tc.size); got != tc.want {
			t.Errorf("ParseSize(%q) = %g, want %g", tc.size, got, tc.want)
		}
	}
}

func TestPackQuantityPrefersConvertedValue(t *testing.T) {
	s := SKU{Size: "12 oz", QuantityInBaseUnit: 340}
	if got := s.PackQuantity(); got != 340 {
		t.Errorf("Expected converted quantity 340, got %g", got)
	}

	s.QuantityInBaseUnit = 0
	if got := s.PackQuantity(); got != 12 {
		t.Errorf("Expected fallback to parsed size 12, got %g", got)
	}
}
