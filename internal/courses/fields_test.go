package courses

import (
	"math"
	"testing"
)

func fp(v float64) *float64 { return &v }

func sameValue(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return math.Abs(*a-*b) < 0.005
}

func TestExtractFields(t *testing.T) {
	cases := []struct {
		name  string
		block string
		want  Fields
	}{
		{"labeled", "Your Grade: 85%\nClass Average: 78%\nStd. Dev: 6.5", Fields{fp(85), fp(78), fp(6.5)}},
		{"french", "Note : 72,5 %\nMoyenne de classe : 68 %\nÉcart-type 4,2", Fields{fp(72.5), fp(68), fp(4.2)}},
		{"loose labels", "Grade (weighted) 82%\nClass avg so far 74%", Fields{fp(82), fp(74), nil}},
		{"fraction", "Midterm 18/20", Fields{fp(90), nil, nil}},
		{"value before average label", "Grade 90% 85% class avg", Fields{fp(90), fp(85), nil}},
		{"positional", "Calculus\n85%\n72%", Fields{fp(85), fp(72), nil}},
		{"positional ignores std dev", "88%\nstd dev 5%", Fields{fp(88), nil, fp(5)}},
		{"std dev heading alone", "Std. Dev\nYour grade 85%\nClass average 70%", Fields{fp(85), fp(70), nil}},
		{"std dev heading before ordinal", "201-NYA-05 85% 70%\nStd. dev\n12. Physics Mechanics", Fields{fp(85), fp(70), nil}},
		{"std dev with equals", "std dev = 3.5%", Fields{nil, nil, fp(3.5)}},
		{"nothing", "Calculus I", Fields{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ExtractFields(c.block)
			if !sameValue(got.YourGrade, c.want.YourGrade) || !sameValue(got.ClassAvg, c.want.ClassAvg) || !sameValue(got.StdDev, c.want.StdDev) {
				t.Fatalf("got grade=%v avg=%v sd=%v", deref(got.YourGrade), deref(got.ClassAvg), deref(got.StdDev))
			}
		})
	}
}

func TestExtractFieldsRejectsOutOfRange(t *testing.T) {
	got := ExtractFields("Your Grade: 120%")
	if got.YourGrade != nil {
		t.Fatalf("grade=%v", *got.YourGrade)
	}
	got = ExtractFields("Quiz 30/20\nClass Average: 140%")
	if got.YourGrade != nil || got.ClassAvg != nil {
		t.Fatalf("grade=%v avg=%v", deref(got.YourGrade), deref(got.ClassAvg))
	}
}

func TestExtractFieldsFractionZeroDenominator(t *testing.T) {
	if got := ExtractFields("Lab 5/0"); got.YourGrade != nil {
		t.Fatalf("grade=%v", *got.YourGrade)
	}
}

func deref(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}
