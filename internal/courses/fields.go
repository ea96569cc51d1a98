package courses

import (
	"regexp"

	"omnigrade/internal/util"
)

const pctGroup = `(\d{1,3}(?:[.,]\d{1,2})?)\s*%`

var (
	reGradeLabel      = regexp.MustCompile(`(?i)(?:projected\s*grade|your\s*grade|current\s*grade|note|resultat|résultat)\s*[:\-]?\s*` + pctGroup)
	reGradeLabelLoose = regexp.MustCompile(`(?i)\b(?:grade|current\s*grade|projected\s*grade|résultat|resultat)\b[^0-9%]{0,40}` + pctGroup)
	reAvgLabel        = regexp.MustCompile(`(?i)(?:class\s*average|moyenne(?:\s*de\s*classe)?)\s*[:\-]?\s*` + pctGroup)
	reAvgLabelLoose   = regexp.MustCompile(`(?i)\b(?:avg|average|class\s*avg|class\s*average|moyenne(?:\s*de\s*classe)?)\b[^0-9%]{0,40}` + pctGroup)
	reAvgAfterValue   = regexp.MustCompile(`(?i)` + pctGroup + `[^a-z0-9%]{0,40}(?:avg|average|class\s*average|class\s*avg|moyenne)`)
	reGradeNearValue  = regexp.MustCompile(`(?i)(?:grade|current\s*grade|projected\s*grade|résultat|resultat)[^0-9%]{0,40}` + pctGroup)
	reStdDev          = regexp.MustCompile(`(?i)(?:std\.?[ \t]*dev\.?|standard[ \t]*deviation|[ée]cart[ \t-]?type)[ \t:=\-]{0,5}(\d{1,3}(?:[.,]\d{1,2})?)[ \t]*%?`)

	gradeLabels   = []*regexp.Regexp{reGradeLabel, reGradeLabelLoose}
	averageLabels = []*regexp.Regexp{reAvgLabel, reAvgLabelLoose}
)

// Fields holds the numeric values found in one text block.
type Fields struct {
	YourGrade *float64
	ClassAvg  *float64
	StdDev    *float64
}

func (f Fields) complete() bool {
	return f.YourGrade != nil && f.ClassAvg != nil && f.StdDev != nil
}

// fill copies the values of other into the fields f leaves absent.
func (f Fields) fill(other Fields) Fields {
	if f.YourGrade == nil {
		f.YourGrade = other.YourGrade
	}
	if f.ClassAvg == nil {
		f.ClassAvg = other.ClassAvg
	}
	if f.StdDev == nil {
		f.StdDev = other.StdDev
	}
	return f
}

// ExtractFields resolves grade, class average and standard deviation from a
// block. Grade and average fall through labeled, fraction, directional and
// positional strategies independently; the first in-range hit wins.
func ExtractFields(block string) Fields {
	var f Fields
	if block == "" {
		return f
	}

	f.YourGrade = firstLabeled(block, gradeLabels)
	f.ClassAvg = firstLabeled(block, averageLabels)

	if f.YourGrade == nil {
		f.YourGrade = inRange(util.FractionToPct(block))
	}

	if f.ClassAvg == nil {
		f.ClassAvg = captured(reAvgAfterValue, block)
	}
	if f.YourGrade == nil {
		f.YourGrade = captured(reGradeNearValue, block)
	}

	if f.YourGrade == nil || f.ClassAvg == nil {
		values := make([]float64, 0, 4)
		for _, v := range util.Percentages(reStdDev.ReplaceAllString(block, " ")) {
			if v <= 100 {
				values = append(values, v)
			}
		}
		if f.YourGrade == nil && len(values) > 0 {
			f.YourGrade = util.FloatPtr(values[0])
		}
		if f.ClassAvg == nil && len(values) >= 2 {
			f.ClassAvg = util.FloatPtr(values[len(values)-1])
		}
	}

	f.StdDev = captured(reStdDev, block)
	return f
}

func firstLabeled(block string, patterns []*regexp.Regexp) *float64 {
	for _, re := range patterns {
		if v := captured(re, block); v != nil {
			return v
		}
	}
	return nil
}

// lastLabeled returns the labeled value that starts furthest into block.
func lastLabeled(block string, patterns []*regexp.Regexp) *float64 {
	best := -1
	var out *float64
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatchIndex(block, -1) {
			if m[0] <= best {
				continue
			}
			if v := inRange(util.ParseNumber(block[m[2]:m[3]])); v != nil {
				best = m[0]
				out = v
			}
		}
	}
	return out
}

func captured(re *regexp.Regexp, block string) *float64 {
	m := re.FindStringSubmatch(block)
	if len(m) < 2 {
		return nil
	}
	return inRange(util.ParseNumber(m[1]))
}

func inRange(v *float64) *float64 {
	if !util.InPercentRange(v) {
		return nil
	}
	return v
}

// stripLabeled removes labeled values so the remainder of a line can be read
// as a name.
func stripLabeled(line string) string {
	for _, re := range []*regexp.Regexp{reGradeLabel, reAvgLabel, reGradeLabelLoose, reAvgLabelLoose, reStdDev} {
		line = re.ReplaceAllString(line, " ")
	}
	return line
}
