//go:build tesseract

package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/poiesic/sluice/ai"
)

// Recognizer runs Tesseract in-process. A fresh client is created per call
// because gosseract clients are not safe for concurrent use.
type Recognizer struct {
	languages []string
	logger    *slog.Logger
}

var _ ai.TextRecognizer = (*Recognizer)(nil)

// New creates a Tesseract recognizer for config.Languages.
func New(config *ai.Config) (ai.TextRecognizer, error) {
	config.Normalize()
	return &Recognizer{
		languages: config.Languages,
		logger:    slog.Default().With("component", "tesseract-recognizer"),
	}, nil
}

// RecognizeText returns the page text. Confidence is the mean word confidence scaled to [0,1].
func (r *Recognizer) RecognizeText(ctx context.Context, image []byte, format string) (*ai.RecognizedText, error) {
	if len(image) == 0 {
		return nil, ai.ErrEmptyImage
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.languages...); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_AUTO); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("failed to get text: %w", err)
	}
	result := &ai.RecognizedText{Text: strings.TrimSpace(text)}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		r.logger.Warn("failed to get bounding boxes", "err", err)
		return result, nil
	}
	var total float64
	for _, b := range boxes {
		total += b.Confidence
	}
	if len(boxes) > 0 && result.Text != "" {
		result.Confidence = ai.ClampConfidence(total / float64(len(boxes)) / 100)
	}

	r.logger.Debug("recognized text", "format", format, "words", len(boxes), "confidence", result.Confidence)
	return result, nil
}
