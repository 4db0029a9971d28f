package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/sluice/ai"
)

// MockClassifier is a test double for ai.Classifier.
// It allows custom behavior injection via function fields.
type MockClassifier struct {
	// ClassifyFunc is called by Classify if set.
	ClassifyFunc func(ctx context.Context, image []byte, format string) (*ai.Label, error)

	callCount atomic.Int64
}

// NewMockClassifier creates a mock classifier with default behavior.
func NewMockClassifier() *MockClassifier {
	return &MockClassifier{}
}

// Classify returns the injected result or a fixed "photograph" label.
func (m *MockClassifier) Classify(ctx context.Context, image []byte, format string) (*ai.Label, error) {
	m.callCount.Add(1)

	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, image, format)
	}
	if len(image) == 0 {
		return nil, ai.ErrEmptyImage
	}
	return &ai.Label{Name: "photograph", Confidence: 0.9}, nil
}

// CallCount returns the number of times Classify was called.
func (m *MockClassifier) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockClassifier) Reset() {
	m.callCount.Store(0)
	m.ClassifyFunc = nil
}
