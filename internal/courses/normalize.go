package courses

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"omnigrade/internal/util"
)

var navPrefixes = []string{
	"assignments", "calendar", "class forum", "course documents", "grades",
	"list of my absences", "online classes", "recommended websites",
	"teachers info", "my services", "team forums", "current average",
	"omnivox", "léa", "angus beauregard", "john abbott college",
}

var brandingTokens = []string{"omnivox", "john abbott college", "angus beauregard"}

var junkHeadings = map[string]struct{}{
	"current average":      {},
	"team forums":          {},
	"assignments":          {},
	"calendar":             {},
	"list of my absences":  {},
	"teachers info":        {},
	"recommended websites": {},
}

var (
	reNavPrefix       = regexp.MustCompile(`(?i)^\s*(?:` + alternation(navPrefixes) + `)\b`)
	reLeadingOrdinal  = regexp.MustCompile(`^[\s|>•\-]*\d+\.\s*`)
	reCrumbs          = regexp.MustCompile(`(?i)(?:course\s*documents|team\s*forums)\s*>\s*`)
	reNameFraction    = regexp.MustCompile(`\b\d+(?:[.,]\d+)?\s*/\s*\d+(?:[.,]\d+)?\b`)
	reTrailingNumbers = regexp.MustCompile(`(?:\s*\b\d{1,3}(?:[.,]\d{1,2})?\s*%?)+\s*$`)
	reLeadingNumber   = regexp.MustCompile(`^\s*\d+\s*`)
	reDigits          = regexp.MustCompile(`\d+`)
	reTrailingDashes  = regexp.MustCompile(`\s*--+\s*$`)
	reNonLetters      = regexp.MustCompile(`[^A-Za-zÀ-ÿ\s]`)
	reHeadingLine     = regexp.MustCompile(`(?i)current\s*grade|class\s*av(?:erage|g)|^\s*(?:your|projected)\s*grade|^\s*moyenne|^\s*note\b|^\s*r[ée]sultat|std\.?\s*dev|standard\s*deviation|[ée]cart[\s-]?type`)

	dashReplacer = strings.NewReplacer("—", "-", "–", "-", "|", " ", "»", " ", "«", " ")
)

// CleanCourseName turns one OCR line into a candidate course name. An empty
// result means the line holds no usable name.
func CleanCourseName(line string) string {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	s := dashReplacer.Replace(line)
	s = reLeadingOrdinal.ReplaceAllString(s, "")

	for {
		loc := reNavPrefix.FindStringIndex(s)
		if loc == nil {
			break
		}
		s = strings.TrimLeft(s[loc[1]:], " :>-,.|")
	}

	s = reCrumbs.ReplaceAllString(s, "")

	s = reNameFraction.ReplaceAllString(s, "")
	s = reTrailingNumbers.ReplaceAllString(s, "")
	s = reLeadingNumber.ReplaceAllString(s, "")
	s = reDigits.ReplaceAllString(s, "")

	s = reTrailingDashes.ReplaceAllString(s, "")
	s = strings.Trim(s, " .-–—")

	s = reNonLetters.ReplaceAllString(s, " ")
	s = util.NormalizeSpaces(s)

	if _, junk := junkHeadings[strings.ToLower(s)]; junk {
		return ""
	}
	return s
}

// IsJunkLine reports portal chrome: branding, navigation entries, value
// headings and short breadcrumbs.
func IsJunkLine(s string) bool {
	t := strings.ToLower(strings.TrimSpace(s))
	if t == "" {
		return true
	}
	for _, token := range brandingTokens {
		if strings.Contains(t, token) {
			return true
		}
	}
	if reNavPrefix.MatchString(t) {
		return true
	}
	if reHeadingLine.MatchString(t) {
		return true
	}
	return strings.Contains(t, ">") && utf8.RuneCountInString(t) <= 40
}

func hasJunkHeadingPrefix(name string) bool {
	low := strings.ToLower(name)
	for heading := range junkHeadings {
		if strings.HasPrefix(low, heading) {
			return true
		}
	}
	return false
}

// qualifiesAsTitle is the numbered-row and card name rule: at least two
// alphabetic tokens of three letters or more.
func qualifiesAsTitle(name string) bool {
	return name != "" && util.CountAlphaTokens(name) >= 2 && !IsJunkLine(name)
}

func alternation(words []string) string {
	parts := make([]string, 0, len(words))
	for _, w := range words {
		parts = append(parts, strings.ReplaceAll(regexp.QuoteMeta(w), " ", `\s*`))
	}
	return strings.Join(parts, "|")
}
