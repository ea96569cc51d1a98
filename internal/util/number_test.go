package util

import (
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "plain", input: "85", want: 85},
		{name: "percent", input: "85%", want: 85},
		{name: "decimal comma", input: "78,5 %", want: 78.5},
		{name: "decimal dot", input: "78.25", want: 78.25},
		{name: "nbsp", input: "64\u00a0%", want: 64},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseNumber(tc.input)
			if got == nil {
				t.Fatalf("got nil")
			}
			if *got != tc.want {
				t.Fatalf("got %v want %v", *got, tc.want)
			}
		})
	}
}

func TestParseNumberRejectsGarbage(t *testing.T) {
	for _, input := range []string{"", "%", "abc", "8.5.1"} {
		if got := ParseNumber(input); got != nil {
			t.Fatalf("input %q: got %v", input, *got)
		}
	}
}

func TestFractionToPct(t *testing.T) {
	got := FractionToPct("47.3/89.01")
	if got == nil {
		t.Fatal("got nil")
	}
	if math.Abs(*got-53.14) > 0.001 {
		t.Fatalf("got %v", *got)
	}
	if got := FractionToPct("5/0"); got != nil {
		t.Fatalf("5/0 gave %v", *got)
	}
	if got := FractionToPct("no fraction here"); got != nil {
		t.Fatalf("got %v", *got)
	}
	if got := FractionToPct("Quiz 19,3 / 23"); got == nil || *got != 83.91 {
		t.Fatalf("comma fraction: %v", got)
	}
}

func TestPercentages(t *testing.T) {
	got := Percentages("Grade 85% avg 78,5 % total 120%")
	want := []float64{85, 78.5, 120}
	if len(got) != len(want) {
		t.Fatalf("len=%d", len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("idx %d got %v want %v", i, got[i], want[i])
		}
	}
}

func TestRound(t *testing.T) {
	if got := Round2(40.8333); got != 40.83 {
		t.Fatalf("Round2=%v", got)
	}
	if got := Round4(0.25596612); got != 0.256 {
		t.Fatalf("Round4=%v", got)
	}
}
