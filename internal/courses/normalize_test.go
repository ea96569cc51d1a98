package courses

import "testing"

func TestCleanCourseName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"3. Calculus I 85% 78%", "Calculus I"},
		{"Course documents > Linear Algebra", "Linear Algebra"},
		{"Économie — Intro 12/20", "Économie Intro"},
		{"Calculus I -- ", "Calculus I"},
		{"Physics (NYA)", "Physics NYA"},
		{"| > 12. Grades » Western Civilization «", "Western Civilization"},
		{"Léa > Calculus I", "Calculus I"},
		{"Léadership Communautaire", "Léadership Communautaire"},
		{"Calendars of Antiquity", "Calendars of Antiquity"},
		{"Team Forums", ""},
		{"Current average", ""},
		{"   ", ""},
		{"", ""},
	}
	for _, c := range cases {
		if got := CleanCourseName(c.in); got != c.want {
			t.Fatalf("CleanCourseName(%q)=%q want %q", c.in, got, c.want)
		}
	}
}

func TestCleanCourseNameLettersOnly(t *testing.T) {
	inputs := []string{
		"201-NYA-05 Calculus I 85% 47.3/89.01",
		"1. Français 101 -- 92 %",
		"Chimie: 18,5 / 20 (lab)",
	}
	for _, in := range inputs {
		for _, r := range CleanCourseName(in) {
			isLatin := (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= 'À' && r <= 'ÿ')
			if !isLatin && r != ' ' {
				t.Fatalf("CleanCourseName(%q) kept %q", in, r)
			}
		}
	}
}

func TestIsJunkLine(t *testing.T) {
	cases := map[string]bool{
		"":                           true,
		"Omnivox Léa":                true,
		"Class average 78%":          true,
		"Your grade":                 true,
		"Assignments":                true,
		"Grades > Fall 2024":         true,
		"John Abbott College":        true,
		"Calculus I":                 false,
		"Léadership Communautaire":   false,
		"Calendars of Antiquity":     false,
		"Introduction to Psychology": false,
	}
	for in, want := range cases {
		if got := IsJunkLine(in); got != want {
			t.Fatalf("IsJunkLine(%q)=%v want %v", in, got, want)
		}
	}
}
