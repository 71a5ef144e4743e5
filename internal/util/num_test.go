package util

import (
	"math"
	"testing"
)

func TestParseQuantity(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  int
	}{
		{name: "empty", input: "", want: 1},
		{name: "integer", input: "5", want: 5},
		{name: "padded integer", input: " 3 ", want: 3},
		{name: "decimal truncates", input: "3.5", want: 3},
		{name: "letters default", input: "abc", want: 1},
		{name: "integer prefix", input: "2 pcs", want: 2},
		{name: "negative", input: "-4", want: -4},
		{name: "huge clamps", input: "1e20", want: math.MaxInt32},
		{name: "huge negative clamps", input: "-1e20", want: math.MinInt32},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ParseQuantity(tc.input); got != tc.want {
				t.Fatalf("got %d want %d", got, tc.want)
			}
		})
	}
}

func TestParseNumber(t *testing.T) {
	if _, ok := ParseNumber("12."); ok {
		t.Fatal("trailing dot should not parse as a plain number")
	}
	if v, ok := ParseNumber("12.5"); !ok || v != 12.5 {
		t.Fatalf("got %v %v", v, ok)
	}
	if _, ok := ParseNumber("NaN"); ok {
		t.Fatal("NaN must be rejected")
	}
}

func TestJoinNonEmpty(t *testing.T) {
	if got := JoinNonEmpty("SCRE", ""); got != "SCRE" {
		t.Fatalf("got %q", got)
	}
	if got := JoinNonEmpty("", "DEF", "GHI"); got != "DEF GHI" {
		t.Fatalf("got %q", got)
	}
	if got := JoinNonEmpty("", ""); got != "" {
		t.Fatalf("got %q", got)
	}
}
