package pipeline

import (
	"context"
	"fmt"

	"omnigrade/internal"
	"omnigrade/internal/courses"
	"omnigrade/internal/credits"
	"omnigrade/internal/ingest"
)

// ReadText turns one document into text. An empty inputType means detect
// from name and content.
func ReadText(ctx context.Context, reader ingest.Reader, inputType, name string, content []byte) (string, error) {
	kind := internal.SourceKind(inputType)
	switch kind {
	case "":
		detected, err := ingest.DetectKind(name, content)
		if err != nil {
			return "", err
		}
		kind = detected
	case internal.SourceImage, internal.SourceHTML, internal.SourcePDF, internal.SourceText:
	default:
		return "", fmt.Errorf("unsupported input type: %s", inputType)
	}
	return reader.Text(ctx, kind, content)
}

// ParseInput runs one document through extraction without touching the
// database. matcher may be nil.
func ParseInput(ctx context.Context, reader ingest.Reader, inputType, name string, content []byte, matcher *credits.Matcher) ([]internal.CourseRecord, courses.Trace, error) {
	text, err := ReadText(ctx, reader, inputType, name, content)
	if err != nil {
		return nil, courses.Trace{}, err
	}
	rows, trace := courses.ExtractWithTrace(text)
	rows = courses.Finalize(rows)
	if matcher != nil {
		rows, _ = matcher.Autofill(rows)
	}
	return rows, trace, nil
}
