package pipeline

import (
	"log/slog"

	"omnigrade/internal/config"
	"omnigrade/internal/courses"
	"omnigrade/internal/ocr"
)

// NewOCREngine builds the Tesseract engine from config. A pass is accepted
// as soon as its text holds a class code or a projected-grade label.
func NewOCREngine(cfg config.Config, logger *slog.Logger) *ocr.Tesseract {
	return ocr.NewTesseract(ocr.Options{
		Languages:      cfg.OCRLanguages,
		PageSegModes:   cfg.OCRPageSegModes,
		UpscaleBelow:   cfg.OCRUpscaleBelow,
		TessdataPrefix: cfg.OCRTessdataPrefix,
		Accept:         courses.HasAnchors,
	}, logger)
}
