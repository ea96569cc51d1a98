package ocr

import (
	"context"
	"errors"
)

// ErrEngineUnavailable means the OCR engine could not run at all, as opposed
// to running and finding nothing.
var ErrEngineUnavailable = errors.New("ocr engine unavailable")

type Engine interface {
	Recognize(ctx context.Context, image []byte) (string, error)
	Status() Status
}

type Status struct {
	Engine    string `json:"engine"`
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Languages string `json:"languages,omitempty"`
	Error     string `json:"error,omitempty"`
}
