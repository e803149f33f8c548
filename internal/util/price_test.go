package util

import "testing"

func TestParsePrice(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "450", want: "450"},
		{name: "decimal", input: "450.00", want: "450"},
		{name: "currency prefix", input: "$1,250.50", want: "1250.5"},
		{name: "currency suffix", input: "980 USD", want: "980"},
		{name: "aed prefix", input: "AED 1,200", want: "1200"},
		{name: "negative", input: "-15.25", want: "-15.25"},
		{name: "spaces inside", input: "1 200", want: "1200"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParsePrice(tc.input)
			if got == nil {
				t.Fatalf("price is nil")
			}
			if got.String() != tc.want {
				t.Fatalf("got %s want %s", got.String(), tc.want)
			}
		})
	}
}

func TestParsePriceNoDigits(t *testing.T) {
	for _, input := range []string{"", "POA", "on request", "TBD", "-", "n/a"} {
		if got := ParsePrice(input); got != nil {
			t.Fatalf("ParsePrice(%q) = %s, want nil", input, got.String())
		}
	}
}

func TestParsePriceUnparseable(t *testing.T) {
	// digits survive stripping but the remainder is not a number
	if got := ParsePrice("4-5 weeks"); got != nil {
		t.Fatalf("got %s want nil", got.String())
	}
}

func TestParseQty(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain", input: "12", want: 12},
		{name: "with unit", input: "12 pcs", want: 12},
		{name: "thousand comma", input: "1,200", want: 1200},
		{name: "decimal", input: "2.5 sqm", want: 2.5},
		{name: "unit first in text", input: "approx 40 sets", want: 40},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseQty(tc.input)
			if parsed.Qty == nil {
				t.Fatalf("qty is nil")
			}
			if *parsed.Qty != tc.want {
				t.Fatalf("got %v want %v", *parsed.Qty, tc.want)
			}
		})
	}
}

func TestParseQtyUnit(t *testing.T) {
	parsed := ParseQty("12 pc")
	if parsed.Unit == nil || *parsed.Unit != "pcs" {
		t.Fatalf("unit=%v", parsed.Unit)
	}
}
