package rscore

import (
	"math"
	"testing"

	"omnigrade/internal"
)

func fp(v float64) *float64 { return &v }

func near(a, b float64) bool { return math.Abs(a-b) < 0.005 }

func termRows() []internal.CourseRecord {
	return []internal.CourseRecord{
		{CourseName: "Calculus I", ClassCode: "201-NYA-05", YourGrade: fp(85), ClassAvg: fp(78), StdDev: fp(6), Credits: fp(2.66)},
		{CourseName: "Physics Mechanics", YourGrade: fp(90), ClassAvg: fp(75), StdDev: fp(5)},
		{CourseName: "Western Civilization", YourGrade: fp(99), ClassAvg: fp(80), StdDev: fp(10), Credits: fp(2)},
		{CourseName: "General Chemistry", YourGrade: fp(70), Credits: fp(3)},
	}
}

func TestCompute(t *testing.T) {
	s := Compute(termRows(), Offsets{Min: -2, Max: 2})
	if len(s.Courses) != 4 || !near(s.TotalCredits, 5.66) {
		t.Fatalf("summary=%+v", s)
	}
	if s.Central == nil || !near(*s.Central, 43.75) || !near(*s.Min, 41.75) || !near(*s.Max, 45.75) {
		t.Fatalf("central=%v min=%v max=%v", s.Central, s.Min, s.Max)
	}

	calc := s.Courses[0]
	if !calc.Scored || !near(calc.Z, 1.17) || !near(calc.RCentral, 40.83) || !near(calc.RMin, 38.83) || !near(calc.RMax, 42.83) {
		t.Fatalf("calc=%+v", calc)
	}
	if !near(calc.Gain, 6.65) || !near(calc.Importance, 0.256) {
		t.Fatalf("calc gain=%v importance=%v", calc.Gain, calc.Importance)
	}
	if s.Courses[1].Credits != 1 {
		t.Fatalf("default credits=%v", s.Courses[1].Credits)
	}
	if chem := s.Courses[3]; chem.Scored || chem.RCentral != 0 || chem.Importance != 0 {
		t.Fatalf("chem=%+v", chem)
	}
}

func TestComputeCapsBoostAtHundred(t *testing.T) {
	s := Compute(termRows()[2:3], Offsets{})
	if c := s.Courses[0]; !near(c.Gain, 1.0) {
		t.Fatalf("gain=%v", c.Gain)
	}
}

func TestComputeZeroStdDev(t *testing.T) {
	rows := []internal.CourseRecord{{CourseName: "Calculus I", YourGrade: fp(85), ClassAvg: fp(78), StdDev: fp(0)}}
	s := Compute(rows, Offsets{})
	if c := s.Courses[0]; !c.Scored || c.Z != 0 || c.RCentral != 35 || c.Gain != 0 || c.Importance != 0 {
		t.Fatalf("course=%+v", c)
	}
}

func TestComputeWithoutScoredCourses(t *testing.T) {
	for _, rows := range [][]internal.CourseRecord{nil, termRows()[3:]} {
		s := Compute(rows, Offsets{Min: -2, Max: 2})
		if s.Central != nil || s.Min != nil || s.Max != nil || s.TotalCredits != 0 {
			t.Fatalf("summary=%+v", s)
		}
	}
}

func TestTopGains(t *testing.T) {
	s := Compute(termRows(), Offsets{})
	top := TopGains(s, 2)
	if len(top) != 2 || top[0].CourseName != "Calculus I" || top[1].CourseName != "Physics Mechanics" {
		t.Fatalf("top=%+v", top)
	}
	if all := TopGains(s, -1); len(all) != 3 || all[2].CourseName != "Western Civilization" {
		t.Fatalf("all=%+v", all)
	}
}
