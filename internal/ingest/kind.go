package ingest

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"omnigrade/internal"
)

var ErrUnsupportedKind = errors.New("unsupported source kind")

var extKinds = map[string]internal.SourceKind{
	".png":  internal.SourceImage,
	".jpg":  internal.SourceImage,
	".jpeg": internal.SourceImage,
	".gif":  internal.SourceImage,
	".bmp":  internal.SourceImage,
	".tif":  internal.SourceImage,
	".tiff": internal.SourceImage,
	".webp": internal.SourceImage,
	".html": internal.SourceHTML,
	".htm":  internal.SourceHTML,
	".pdf":  internal.SourcePDF,
	".txt":  internal.SourceText,
}

// DetectKind classifies a source by extension, then by sniffing its content.
func DetectKind(name string, content []byte) (internal.SourceKind, error) {
	if kind, ok := extKinds[strings.ToLower(filepath.Ext(name))]; ok {
		return kind, nil
	}
	return kindFromContentType(http.DetectContentType(content))
}

func kindFromContentType(contentType string) (internal.SourceKind, error) {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	switch {
	case strings.HasPrefix(ct, "image/"):
		return internal.SourceImage, nil
	case ct == "text/html":
		return internal.SourceHTML, nil
	case ct == "application/pdf":
		return internal.SourcePDF, nil
	case ct == "text/plain":
		return internal.SourceText, nil
	}
	return "", ErrUnsupportedKind
}
