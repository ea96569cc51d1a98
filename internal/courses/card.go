package courses

import (
	"regexp"
	"strings"

	"omnigrade/internal"
	"omnigrade/internal/util"
)

var (
	reCardLabel   = regexp.MustCompile(`(?i)projected\s*grade`)
	reAverageLine = regexp.MustCompile(`(?i)class\s*average|class\s*avg|moyenne`)
)

const (
	cardGradeLines = 2
	cardCodeAbove  = 5
	cardNameAbove  = 6
)

// scanCards reads mobile layouts where each course is a card opened by a
// "projected grade" label. A card ends where the next label starts.
func scanCards(lines []string, seen seenKeys) []internal.CourseRecord {
	labels := cardLabelLines(lines)
	codeBelow := len(labels) > 0 && labels[0] <= firstCodeLine(lines)

	var out []internal.CourseRecord
	for n, idx := range labels {
		end := len(lines)
		if n+1 < len(labels) {
			end = labels[n+1]
		}
		floor := 0
		if n > 0 {
			floor = labels[n-1] + 1
		}
		card := lines[idx:end]
		text := strings.Join(card, "\n")

		grade := cardGrade(card, text)
		avg := cardAverage(card, text)
		if grade == nil && avg == nil {
			continue
		}

		code := cardCode(lines, idx, end, floor, codeBelow)
		name := cardName(lines, idx, floor)
		if seen.has(code, name) {
			continue
		}

		rec := internal.CourseRecord{
			CourseName: name,
			ClassCode:  code,
			YourGrade:  grade,
			ClassAvg:   avg,
			StdDev:     captured(reStdDev, text),
			Pass:       internal.PassCard,
		}
		seen.add(rec)
		out = append(out, rec)
	}
	return out
}

func cardLabelLines(lines []string) []int {
	var labels []int
	for i, line := range lines {
		if reCardLabel.MatchString(line) {
			labels = append(labels, i)
		}
	}
	return labels
}

func cardGrade(card []string, text string) *float64 {
	label := card[0]
	if loc := reCardLabel.FindStringIndex(label); loc != nil {
		if v := inRange(util.FirstPercent(label[loc[1]:])); v != nil {
			return v
		}
	}
	for j := 1; j < len(card) && j <= cardGradeLines; j++ {
		if reAverageLine.MatchString(card[j]) {
			continue
		}
		if v := inRange(util.FirstPercent(card[j])); v != nil {
			return v
		}
	}
	if v := lastLabeled(text, gradeLabels); v != nil {
		return v
	}
	return inRange(util.FractionToPct(text))
}

func cardAverage(card []string, text string) *float64 {
	for _, line := range card {
		loc := reAverageLine.FindStringIndex(line)
		if loc == nil {
			continue
		}
		if v := inRange(util.FirstPercent(line[loc[1]:])); v != nil {
			return v
		}
		if !reCardLabel.MatchString(line) {
			if v := inRange(util.FirstPercent(line)); v != nil {
				return v
			}
		}
	}
	return lastLabeled(text, averageLabels)
}

// cardCode prefers the nearest code above the label, then the first inside
// the card. With codeBelow the card is searched first.
func cardCode(lines []string, idx, end, floor int, codeBelow bool) string {
	inside := func() string {
		for k := idx; k < end; k++ {
			if code := FindClassCode(lines[k]); code != "" {
				return code
			}
		}
		return ""
	}
	if codeBelow {
		if code := inside(); code != "" {
			return code
		}
	}
	for k := idx - 1; k >= floor && k >= idx-cardCodeAbove; k-- {
		if code := FindClassCode(lines[k]); code != "" {
			return code
		}
	}
	return inside()
}

func firstCodeLine(lines []string) int {
	for i, line := range lines {
		if reClassCode.MatchString(line) {
			return i
		}
	}
	return len(lines)
}

func cardName(lines []string, idx, floor int) string {
	for k := idx - 1; k >= floor && k >= idx-cardNameAbove; k-- {
		line := reClassCode.ReplaceAllString(lines[k], " ")
		if name := CleanCourseName(line); qualifiesAsTitle(name) {
			return name
		}
	}
	return ""
}
