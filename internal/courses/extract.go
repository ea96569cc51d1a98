// Package courses turns OCR text of a grade portal into course records.
//
// Extraction runs three passes over the same lines: class-code anchors,
// numbered rows and "projected grade" cards. Later passes skip courses an
// earlier pass already emitted, and the candidates are merged by class code
// or name.
package courses

import (
	"strings"

	"omnigrade/internal"
)

// Extract never fails: text without recognizable courses yields an empty
// slice.
func Extract(text string) []internal.CourseRecord {
	rows, _ := ExtractWithTrace(text)
	return rows
}

// ExtractWithTrace is Extract plus the diagnostics explaining its result.
func ExtractWithTrace(text string) ([]internal.CourseRecord, Trace) {
	lines := splitLines(text)
	trace := newTrace(text, lines)
	if len(lines) == 0 {
		trace.finish(nil)
		return []internal.CourseRecord{}, trace
	}

	seen := seenKeys{}
	cands := scanAnchors(lines)
	for _, r := range cands {
		seen.add(r)
	}
	trace.AnchorRows = len(cands)

	numbered := scanNumbered(lines, seen)
	trace.NumberedRows = len(numbered)
	cands = append(cands, numbered...)

	cards := scanCards(lines, seen)
	trace.CardRows = len(cards)
	cands = append(cands, cards...)

	rows := Merge(cands)
	trace.finish(rows)
	return rows, trace
}

func splitLines(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	parts := strings.Split(text, "\n")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if line := strings.TrimSpace(part); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// HasAnchors reports whether text holds a class code or a projected-grade
// label.
func HasAnchors(text string) bool {
	return reClassCode.MatchString(text) || reCardLabel.MatchString(text)
}
