package courses

import (
	"regexp"
	"strings"

	"omnigrade/internal"
)

var reOrdinalMarker = regexp.MustCompile(`^\s*\d+\.(?:\s|$)`)

const numberedNameLines = 5 // marker line plus the four after it

// seenKeys records class codes and lower-cased names already emitted so later
// passes do not re-emit them.
type seenKeys map[string]struct{}

func (s seenKeys) add(r internal.CourseRecord) {
	if r.ClassCode != "" {
		s["code:"+r.ClassCode] = struct{}{}
	}
	if r.CourseName != "" {
		s["name:"+strings.ToLower(r.CourseName)] = struct{}{}
	}
}

func (s seenKeys) has(code, name string) bool {
	if code != "" {
		if _, ok := s["code:"+code]; ok {
			return true
		}
	}
	if name != "" {
		if _, ok := s["name:"+strings.ToLower(name)]; ok {
			return true
		}
	}
	return false
}

func splitNumberedBlocks(lines []string) [][]string {
	var blocks [][]string
	var current []string
	for _, line := range lines {
		if reOrdinalMarker.MatchString(line) {
			if current != nil {
				blocks = append(blocks, current)
			}
			current = []string{line}
			continue
		}
		if current != nil {
			current = append(current, line)
		}
	}
	if current != nil {
		blocks = append(blocks, current)
	}
	return blocks
}

// scanNumbered reads "1." / "2." style layouts, one candidate per block.
func scanNumbered(lines []string, seen seenKeys) []internal.CourseRecord {
	var out []internal.CourseRecord
	for _, block := range splitNumberedBlocks(lines) {
		name := ""
		for k := 0; k < len(block) && k < numberedNameLines; k++ {
			raw := block[k]
			if k == 0 {
				raw = reOrdinalMarker.ReplaceAllString(raw, "")
			}
			if reClassCode.MatchString(raw) {
				continue
			}
			if cand := CleanCourseName(raw); qualifiesAsTitle(cand) {
				name = cand
				break
			}
		}
		if name == "" {
			continue
		}

		text := strings.Join(block, "\n")
		code := FindClassCode(text)
		if seen.has(code, name) {
			continue
		}

		fields := ExtractFields(text)
		rec := internal.CourseRecord{
			CourseName: name,
			ClassCode:  code,
			YourGrade:  fields.YourGrade,
			ClassAvg:   fields.ClassAvg,
			StdDev:     fields.StdDev,
			Pass:       internal.PassNumbered,
		}
		seen.add(rec)
		out = append(out, rec)
	}
	return out
}
