package ai

import "context"

// Classifier labels images.
// Implementations must be safe for concurrent use.
type Classifier interface {
	// Classify returns the most likely label for the image.
	// format is the short image format name, e.g. "png" or "jpeg".
	Classify(ctx context.Context, image []byte, format string) (*Label, error)
}

// TextRecognizer reads text from images.
// Implementations must be safe for concurrent use.
type TextRecognizer interface {
	// RecognizeText returns the text visible in the image.
	// An image without text yields an empty Text and no error.
	RecognizeText(ctx context.Context, image []byte, format string) (*RecognizedText, error)
}

// Label is a classification result.
type Label struct {
	// Name is one of ImageLabels, lowercase with underscores.
	Name string

	// Confidence is in [0,1].
	Confidence float64
}

// RecognizedText is an OCR result.
type RecognizedText struct {
	Text string

	// Confidence is in [0,1].
	Confidence float64
}

// Provider aggregates enrichment services for initialization and lifecycle management.
type Provider interface {
	// Classifier returns the image classifier, or nil when classification is disabled.
	Classifier() Classifier

	// TextRecognizer returns the OCR service, or nil when OCR is disabled.
	TextRecognizer() TextRecognizer

	// Close releases resources held by the provider and its services.
	Close() error
}

// Compose bundles independently built services into a Provider.
// closers run in order on Close; the first error is returned.
func Compose(classifier Classifier, recognizer TextRecognizer, closers ...func() error) Provider {
	return &composite{classifier: classifier, recognizer: recognizer, closers: closers}
}

type composite struct {
	classifier Classifier
	recognizer TextRecognizer
	closers    []func() error
}

func (c *composite) Classifier() Classifier         { return c.classifier }
func (c *composite) TextRecognizer() TextRecognizer { return c.recognizer }

func (c *composite) Close() error {
	var first error
	for _, fn := range c.closers {
		if err := fn(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
