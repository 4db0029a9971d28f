package openai

import (
	"context"
	"log/slog"
	"strings"

	"github.com/poiesic/sluice/ai"
	"github.com/tmc/langchaingo/llms"
)

// TextRecognizer implements ai.TextRecognizer with a vision chat model.
type TextRecognizer struct {
	client llms.Model
	logger *slog.Logger
}

type transcription struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func newTextRecognizer(config *ai.Config) (*TextRecognizer, error) {
	client, err := newClient(config.Host, config.OCRModel)
	if err != nil {
		return nil, err
	}
	return &TextRecognizer{
		client: client,
		logger: slog.Default().With("component", "openai-recognizer"),
	}, nil
}

// NewTextRecognizer creates an OCR service using the provided configuration.
//
// Returns ai.TextRecognizer interface to enforce abstraction.
func NewTextRecognizer(config *ai.Config) (ai.TextRecognizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newTextRecognizer(config)
}

// RecognizeText asks the model to transcribe the text in the image.
func (r *TextRecognizer) RecognizeText(ctx context.Context, image []byte, format string) (*ai.RecognizedText, error) {
	if len(image) == 0 {
		return nil, ai.ErrEmptyImage
	}

	var result transcription
	content := imageMessages(ocrSystemPrompt, "Transcribe the text in this image.", image, format)
	if err := generateJSON(ctx, r.client, r.logger, content, &result); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(result.Text)
	confidence := ai.ClampConfidence(result.Confidence)
	if text == "" {
		confidence = 0
	}
	r.logger.Debug("recognized text", "chars", len(text), "confidence", confidence)
	return &ai.RecognizedText{Text: text, Confidence: confidence}, nil
}
