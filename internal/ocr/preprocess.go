package ocr

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

const upscaleFactor = 1.5

// Preprocess prepares a screenshot for recognition: grayscale, contrast,
// sharpen, and a 1.5x upscale when the longer side is below upscaleBelow.
// The result is PNG encoded.
func Preprocess(content []byte, upscaleBelow int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(content), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	gray := imaging.Grayscale(img)
	gray = imaging.AdjustContrast(gray, 15)
	gray = imaging.Sharpen(gray, 0.7)

	w, h := gray.Bounds().Dx(), gray.Bounds().Dy()
	if upscaleBelow > 0 && max(w, h) < upscaleBelow {
		gray = imaging.Resize(gray, int(float64(w)*upscaleFactor), 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, gray, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode image: %w", err)
	}
	return buf.Bytes(), nil
}
