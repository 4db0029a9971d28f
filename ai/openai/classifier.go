package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/sluice/ai"
	"github.com/tmc/langchaingo/llms"
)

// Classifier implements ai.Classifier with a vision chat model.
type Classifier struct {
	client llms.Model
	logger *slog.Logger
}

type classification struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

func newClassifier(config *ai.Config) (*Classifier, error) {
	client, err := newClient(config.Host, config.ClassifierModel)
	if err != nil {
		return nil, err
	}
	return &Classifier{
		client: client,
		logger: slog.Default().With("component", "openai-classifier"),
	}, nil
}

// NewClassifier creates a classifier using the provided configuration.
//
// Returns ai.Classifier interface to enforce abstraction.
func NewClassifier(config *ai.Config) (ai.Classifier, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newClassifier(config)
}

// Classify asks the model for the single best label of the image.
func (c *Classifier) Classify(ctx context.Context, image []byte, format string) (*ai.Label, error) {
	if len(image) == 0 {
		return nil, ai.ErrEmptyImage
	}

	var result classification
	content := imageMessages(buildClassifierPrompt(), "Classify this image.", image, format)
	if err := generateJSON(ctx, c.client, c.logger, content, &result); err != nil {
		return nil, err
	}

	label := &ai.Label{
		Name:       ai.NormalizeLabel(result.Label),
		Confidence: ai.ClampConfidence(result.Confidence),
	}
	c.logger.Debug("classified image", "raw", result.Label, "label", label.Name, "confidence", label.Confidence)
	return label, nil
}
