package courses

import (
	"strings"
	"unicode/utf8"

	"omnigrade/internal"
	"omnigrade/internal/util"
)

const previewLen = 800

// Trace explains an extraction: what the scanners could anchor on and, when
// nothing came out, why.
type Trace struct {
	TextLen       int      `json:"textLen"`
	LineCount     int      `json:"lineCount"`
	CodeHits      []string `json:"codeHits"`
	PercentTokens []string `json:"percentTokens"`
	CardLabels    int      `json:"cardLabels"`
	Markers       int      `json:"markers"`
	AnchorRows    int      `json:"anchorRows"`
	NumberedRows  int      `json:"numberedRows"`
	CardRows      int      `json:"cardRows"`
	Rows          int      `json:"rows"`
	Preview       string   `json:"preview"`
	Reason        string   `json:"reason"`
}

// Diagnose runs the extraction and returns only its trace.
func Diagnose(text string) Trace {
	_, trace := ExtractWithTrace(text)
	return trace
}

func newTrace(text string, lines []string) Trace {
	t := Trace{
		TextLen:       utf8.RuneCountInString(text),
		LineCount:     len(lines),
		CodeHits:      []string{},
		PercentTokens: util.PercentTokens(text),
		Preview:       util.Truncate(text, previewLen),
	}
	if t.PercentTokens == nil {
		t.PercentTokens = []string{}
	}
	for _, line := range lines {
		for _, code := range reClassCode.FindAllString(line, -1) {
			t.CodeHits = append(t.CodeHits, util.NormalizeCode(code))
		}
		if reCardLabel.MatchString(line) {
			t.CardLabels++
		}
		if reOrdinalMarker.MatchString(line) {
			t.Markers++
		}
	}
	return t
}

func (t *Trace) finish(rows []internal.CourseRecord) {
	t.Rows = len(rows)
	switch {
	case t.Rows > 0:
		t.Reason = "ok"
	case strings.TrimSpace(t.Preview) == "":
		t.Reason = "empty_text"
	case len(t.CodeHits) == 0 && t.CardLabels == 0 && t.Markers == 0:
		t.Reason = "no_anchors"
	case len(t.PercentTokens) == 0:
		t.Reason = "no_values"
	default:
		t.Reason = "no_names"
	}
}
