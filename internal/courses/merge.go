package courses

import (
	"strings"
	"unicode/utf8"

	"omnigrade/internal"
	"omnigrade/internal/util"
)

// SplitWarning flags a course that ended up in two groups: one keyed by
// name (no code seen) and one keyed by code carrying the same name.
type SplitWarning struct {
	CourseName string
	ClassCode  string
}

// MergeKey is the class code when present, else the lower-cased name.
func MergeKey(r internal.CourseRecord) string {
	if code := util.NormalizeCode(r.ClassCode); code != "" {
		return code
	}
	return strings.ToLower(strings.TrimSpace(r.CourseName))
}

// Merge collapses candidates sharing a merge key. Groups keep first-seen
// order; within a group earlier candidates win and later ones only fill
// absent fields. The input is not modified.
func Merge(cands []internal.CourseRecord) []internal.CourseRecord {
	out, _ := MergeWithReport(cands)
	return out
}

func MergeWithReport(cands []internal.CourseRecord) ([]internal.CourseRecord, []SplitWarning) {
	index := map[string]int{}
	out := make([]internal.CourseRecord, 0, len(cands))
	for _, c := range cands {
		key := MergeKey(c)
		if key == "" {
			continue
		}
		if util.NormalizeCode(c.ClassCode) != "" {
			key = "code:" + key
		} else {
			key = "name:" + key
		}

		pos, ok := index[key]
		if !ok {
			index[key] = len(out)
			out = append(out, copyRecord(c))
			continue
		}
		out[pos] = fillMissing(out[pos], c)
	}

	var warnings []SplitWarning
	codedNames := map[string]string{}
	for _, r := range out {
		if r.ClassCode != "" && r.CourseName != "" {
			low := strings.ToLower(r.CourseName)
			if _, ok := codedNames[low]; !ok {
				codedNames[low] = r.ClassCode
			}
		}
	}
	for _, r := range out {
		if r.ClassCode != "" {
			continue
		}
		if code, ok := codedNames[strings.ToLower(r.CourseName)]; ok {
			warnings = append(warnings, SplitWarning{CourseName: r.CourseName, ClassCode: code})
		}
	}
	return out, warnings
}

func fillMissing(dst, src internal.CourseRecord) internal.CourseRecord {
	if dst.CourseName == "" {
		dst.CourseName = src.CourseName
	}
	if dst.YourGrade == nil {
		dst.YourGrade = clonePtr(src.YourGrade)
	}
	if dst.ClassAvg == nil {
		dst.ClassAvg = clonePtr(src.ClassAvg)
	}
	if dst.StdDev == nil {
		dst.StdDev = clonePtr(src.StdDev)
	}
	if dst.Credits == nil && src.Credits != nil {
		dst.Credits = clonePtr(src.Credits)
		dst.CreditsSource = src.CreditsSource
	}
	return dst
}

func copyRecord(r internal.CourseRecord) internal.CourseRecord {
	r.ClassCode = util.NormalizeCode(r.ClassCode)
	r.YourGrade = clonePtr(r.YourGrade)
	r.ClassAvg = clonePtr(r.ClassAvg)
	r.StdDev = clonePtr(r.StdDev)
	r.Credits = clonePtr(r.Credits)
	return r
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return util.FloatPtr(*v)
}

// Finalize is the last cleanup before rows are stored: names are cleaned
// again and rows whose name is too short or starts with a portal heading are
// dropped.
func Finalize(records []internal.CourseRecord) []internal.CourseRecord {
	out := make([]internal.CourseRecord, 0, len(records))
	for _, r := range records {
		name := CleanCourseName(r.CourseName)
		if utf8.RuneCountInString(name) < 3 || hasJunkHeadingPrefix(name) {
			continue
		}
		r = copyRecord(r)
		r.CourseName = name
		out = append(out, r)
	}
	return out
}
