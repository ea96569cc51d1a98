// Package ingest turns uploaded sources (screenshots, saved pages, PDFs,
// e-mails) into the plain text the course scanners read.
package ingest

import (
	"context"
	"fmt"

	"omnigrade/internal"
	"omnigrade/internal/ocr"
)

type Reader struct {
	Engine ocr.Engine
}

func (r Reader) Text(ctx context.Context, kind internal.SourceKind, content []byte) (string, error) {
	switch kind {
	case internal.SourceImage:
		if r.Engine == nil {
			return "", ocr.ErrEngineUnavailable
		}
		return r.Engine.Recognize(ctx, content)
	case internal.SourceHTML:
		return TextFromHTML(content)
	case internal.SourcePDF:
		return TextFromPDF(content)
	case internal.SourceText:
		return string(content), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
}
