package courses

import (
	"reflect"
	"testing"

	"omnigrade/internal"
)

func TestMergeFillsMissingOnly(t *testing.T) {
	cands := []internal.CourseRecord{
		{CourseName: "Calculus I", ClassCode: "201-NYA-05", YourGrade: fp(85)},
		{ClassCode: "201-NYA-05", YourGrade: fp(90), ClassAvg: fp(78)},
	}
	rows := Merge(cands)
	if len(rows) != 1 {
		t.Fatalf("len=%d", len(rows))
	}
	r := rows[0]
	if r.CourseName != "Calculus I" || *r.YourGrade != 85 || r.ClassAvg == nil || *r.ClassAvg != 78 {
		t.Fatalf("row=%+v", r)
	}
	if cands[0].ClassAvg != nil {
		t.Fatalf("input mutated")
	}
	*r.YourGrade = 1
	if *cands[0].YourGrade != 85 {
		t.Fatalf("merged row shares storage with input")
	}
}

func TestMergeKeepsFirstSeenOrder(t *testing.T) {
	rows := Merge([]internal.CourseRecord{
		{CourseName: "Physics", ClassCode: "203-NYA-05"},
		{CourseName: "Calculus I", ClassCode: "201-NYA-05"},
		{CourseName: "Physics", ClassCode: "203-nya-05", ClassAvg: fp(70)},
		{CourseName: "Western Civilization"},
	})
	if len(rows) != 3 {
		t.Fatalf("len=%d", len(rows))
	}
	if rows[0].ClassCode != "203-NYA-05" || rows[0].ClassAvg == nil || rows[1].ClassCode != "201-NYA-05" || rows[2].CourseName != "Western Civilization" {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestMergeSkipsEmptyKeys(t *testing.T) {
	rows := Merge([]internal.CourseRecord{{YourGrade: fp(80)}, {CourseName: "  "}})
	if len(rows) != 0 {
		t.Fatalf("rows=%+v", rows)
	}
}

func TestMergeIdempotent(t *testing.T) {
	cands := []internal.CourseRecord{
		{CourseName: "Calculus I", ClassCode: "201-NYA-05", YourGrade: fp(85)},
		{CourseName: "calculus i", StdDev: fp(3)},
		{ClassCode: "201-NYA-05", ClassAvg: fp(78)},
	}
	once := Merge(cands)
	twice := Merge(once)
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("once=%+v twice=%+v", once, twice)
	}
}

func TestMergeOrderIndependentWithoutConflicts(t *testing.T) {
	a := internal.CourseRecord{CourseName: "Calculus I", ClassCode: "201-NYA-05", YourGrade: fp(85)}
	b := internal.CourseRecord{ClassCode: "201-NYA-05", ClassAvg: fp(78), StdDev: fp(6)}
	ab := Merge([]internal.CourseRecord{a, b})
	ba := Merge([]internal.CourseRecord{b, a})
	if len(ab) != 1 || len(ba) != 1 {
		t.Fatalf("ab=%+v ba=%+v", ab, ba)
	}
	ab[0].Pass, ba[0].Pass = "", ""
	if !reflect.DeepEqual(ab, ba) {
		t.Fatalf("ab=%+v ba=%+v", ab[0], ba[0])
	}
}

func TestMergeWithReportFlagsSplitCourse(t *testing.T) {
	rows, warnings := MergeWithReport([]internal.CourseRecord{
		{CourseName: "Calculus I", ClassCode: "201-NYA-05"},
		{CourseName: "calculus i", YourGrade: fp(85)},
	})
	if len(rows) != 2 {
		t.Fatalf("len=%d", len(rows))
	}
	if len(warnings) != 1 || warnings[0].ClassCode != "201-NYA-05" || warnings[0].CourseName != "calculus i" {
		t.Fatalf("warnings=%+v", warnings)
	}
}

func TestFinalize(t *testing.T) {
	rows := Finalize([]internal.CourseRecord{
		{CourseName: "Ab", ClassCode: "101-AAA-01"},
		{CourseName: "3. Calculus I 85%", ClassCode: "201-NYA-05"},
		{CourseName: "Team forums"},
		{CourseName: ""},
	})
	if len(rows) != 1 || rows[0].CourseName != "Calculus I" {
		t.Fatalf("rows=%+v", rows)
	}
}
