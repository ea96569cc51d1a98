package util

import "testing"

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("201 - nya -05"); got != "201-NYA-05" {
		t.Fatalf("got %q", got)
	}
}

func TestFoldAccents(t *testing.T) {
	if got := FoldAccents("Économie Générale"); got != "economie generale" {
		t.Fatalf("got %q", got)
	}
}

func TestCountAlphaTokens(t *testing.T) {
	cases := map[string]int{
		"Calculus I":             1,
		"General Chemistry":      2,
		"Littérature et société": 2,
		"":                       0,
	}
	for input, want := range cases {
		if got := CountAlphaTokens(input); got != want {
			t.Fatalf("%q: got %d want %d", input, got, want)
		}
	}
}

func TestDiceCoefficient(t *testing.T) {
	if got := DiceCoefficient("calculus", "calculus"); got != 1 {
		t.Fatalf("identical got %v", got)
	}
	if got := DiceCoefficient("calculus", "zzz"); got != 0 {
		t.Fatalf("disjoint got %v", got)
	}
	if got := DiceCoefficient("calculus i", "calculus ii"); got < 0.8 {
		t.Fatalf("close got %v", got)
	}
}
