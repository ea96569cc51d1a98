package courses

import (
	"regexp"
	"strings"

	"omnigrade/internal"
	"omnigrade/internal/util"
)

var reClassCode = regexp.MustCompile(`(?i)\b\d{3}\s*-\s*[A-Z0-9]{2,4}\s*-\s*[A-Z0-9]{2,3}\b`)

const (
	anchorAfter  = 8 // anchor line included
	anchorBefore = 4
	nameAbove    = 3
	nameBelow    = 3
)

// FindClassCode returns the first class code in s, normalized, or "".
func FindClassCode(s string) string {
	return util.NormalizeCode(reClassCode.FindString(s))
}

// scanAnchors emits one candidate per line holding a class code. Windows
// never reach past a neighbouring anchor line, nor into another course's
// "projected grade" card.
func scanAnchors(lines []string) []internal.CourseRecord {
	anchors := make([]int, 0, 8)
	for i, line := range lines {
		if reClassCode.MatchString(line) {
			anchors = append(anchors, i)
		}
	}
	labels := cardLabelLines(lines)
	codeBelow := len(labels) > 0 && len(anchors) > 0 && labels[0] <= anchors[0]

	out := make([]internal.CourseRecord, 0, len(anchors))
	for n, i := range anchors {
		raw := reClassCode.FindString(lines[i])

		end := min(len(lines), i+anchorAfter)
		if n+1 < len(anchors) {
			end = min(end, anchors[n+1])
		}
		start := max(0, i-anchorBefore)
		if n > 0 {
			start = max(start, anchors[n-1]+1)
		}
		start, end = cardBounds(labels, codeBelow, i, start, end)

		fields := ExtractFields(strings.Join(lines[i:end], "\n"))
		if !fields.complete() && start < i {
			fields = fields.fill(ExtractFields(strings.Join(lines[start:i], "\n")))
		}

		name := anchorName(lines, i, raw)
		if name == "" || IsJunkLine(name) {
			continue
		}

		out = append(out, internal.CourseRecord{
			CourseName: name,
			ClassCode:  util.NormalizeCode(raw),
			YourGrade:  fields.YourGrade,
			ClassAvg:   fields.ClassAvg,
			StdDev:     fields.StdDev,
			Pass:       internal.PassAnchor,
		})
	}
	return out
}

// cardBounds narrows the windows of the anchor at line i to its own card.
// With codeBelow the code sits inside the card its label opens; otherwise
// the code precedes the label of its card.
func cardBounds(labels []int, codeBelow bool, i, start, end int) (int, int) {
	if len(labels) == 0 {
		return start, end
	}
	prev := -1
	for _, l := range labels {
		if l <= i {
			prev = l
		}
	}
	if codeBelow {
		if prev >= 0 {
			start = max(start, prev)
		}
		if next := nthLabelAfter(labels, i, 1); next >= 0 {
			end = min(end, next)
		}
		return start, end
	}
	if prev >= start {
		start = i
	}
	if next := nthLabelAfter(labels, i, 2); next >= 0 {
		end = min(end, next)
	}
	return start, end
}

func nthLabelAfter(labels []int, i, nth int) int {
	for _, l := range labels {
		if l > i {
			if nth--; nth == 0 {
				return l
			}
		}
	}
	return -1
}

func anchorName(lines []string, i int, rawCode string) string {
	for k := i - 1; k >= 0 && k >= i-nameAbove; k-- {
		if reClassCode.MatchString(lines[k]) {
			break
		}
		if name := CleanCourseName(lines[k]); name != "" && !IsJunkLine(name) {
			return name
		}
	}
	for k := i + 1; k < len(lines) && k <= i+nameBelow; k++ {
		if reClassCode.MatchString(lines[k]) {
			break
		}
		if name := CleanCourseName(lines[k]); name != "" && !IsJunkLine(name) {
			return name
		}
	}

	rest := strings.Replace(lines[i], rawCode, " ", 1)
	if name := CleanCourseName(stripLabeled(rest)); name != "" && !IsJunkLine(name) {
		return name
	}
	return ""
}
