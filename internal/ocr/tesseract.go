package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"strings"
	"time"

	"github.com/otiai10/gosseract/v2"
)

type Options struct {
	Languages      []string
	PageSegModes   []int
	UpscaleBelow   int
	TessdataPrefix string
	// Accept reports whether a recognized text is good enough to stop trying
	// further page segmentation modes.
	Accept func(text string) bool
}

// Tesseract runs libtesseract through gosseract, once per configured page
// segmentation mode until a result is accepted.
type Tesseract struct {
	opts Options
	log  *slog.Logger
}

func NewTesseract(opts Options, logger *slog.Logger) *Tesseract {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Languages) == 0 {
		opts.Languages = []string{"eng"}
	}
	if len(opts.PageSegModes) == 0 {
		opts.PageSegModes = []int{int(gosseract.PSM_SINGLE_BLOCK)}
	}
	if opts.Accept == nil {
		opts.Accept = func(text string) bool { return strings.TrimSpace(text) != "" }
	}
	return &Tesseract{opts: opts, log: logger}
}

func (t *Tesseract) Recognize(ctx context.Context, content []byte) (string, error) {
	prepared, err := Preprocess(content, t.opts.UpscaleBelow)
	if err != nil {
		return "", err
	}

	best := ""
	for _, mode := range t.opts.PageSegModes {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		start := time.Now()
		text, err := t.run(prepared, gosseract.PageSegMode(mode))
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
		}
		t.log.Debug("ocr.tesseract.pass", "psm", mode, "chars", len(text), "duration_ms", time.Since(start).Milliseconds())
		if t.opts.Accept(text) {
			return text, nil
		}
		if len(text) > len(best) {
			best = text
		}
	}
	return best, nil
}

func (t *Tesseract) run(content []byte, mode gosseract.PageSegMode) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if t.opts.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.opts.TessdataPrefix); err != nil {
			return "", fmt.Errorf("set tessdata prefix: %w", err)
		}
	}
	if err := client.SetLanguage(t.opts.Languages...); err != nil {
		return "", fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(mode); err != nil {
		return "", fmt.Errorf("set page seg mode: %w", err)
	}
	if err := client.SetImageFromBytes(content); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", err
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n"), nil
}

// Status probes the engine with a blank image so a missing language pack or
// tessdata directory shows up before any upload is processed.
func (t *Tesseract) Status() Status {
	st := Status{
		Engine:    "tesseract",
		Version:   gosseract.Version(),
		Languages: strings.Join(t.opts.Languages, "+"),
	}
	if _, err := t.run(blankPNG(), gosseract.PSM_SINGLE_BLOCK); err != nil {
		st.Error = err.Error()
		return st
	}
	st.Available = true
	return st
}

func blankPNG() []byte {
	img := image.NewGray(image.Rect(0, 0, 32, 32))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	_ = png.Encode(&buf, img)
	return buf.Bytes()
}
