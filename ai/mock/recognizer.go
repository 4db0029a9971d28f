package mock

import (
	"context"
	"sync/atomic"

	"github.com/poiesic/sluice/ai"
)

// MockTextRecognizer is a test double for ai.TextRecognizer.
type MockTextRecognizer struct {
	// RecognizeTextFunc is called by RecognizeText if set.
	RecognizeTextFunc func(ctx context.Context, image []byte, format string) (*ai.RecognizedText, error)

	callCount atomic.Int64
}

// NewMockTextRecognizer creates a mock recognizer with default behavior.
func NewMockTextRecognizer() *MockTextRecognizer {
	return &MockTextRecognizer{}
}

// RecognizeText returns the injected result or a fixed "mock text".
func (m *MockTextRecognizer) RecognizeText(ctx context.Context, image []byte, format string) (*ai.RecognizedText, error) {
	m.callCount.Add(1)

	if m.RecognizeTextFunc != nil {
		return m.RecognizeTextFunc(ctx, image, format)
	}
	if len(image) == 0 {
		return nil, ai.ErrEmptyImage
	}
	return &ai.RecognizedText{Text: "mock text", Confidence: 0.9}, nil
}

// CallCount returns the number of times RecognizeText was called.
func (m *MockTextRecognizer) CallCount() int {
	return int(m.callCount.Load())
}

// Reset clears the call count and custom functions.
func (m *MockTextRecognizer) Reset() {
	m.callCount.Store(0)
	m.RecognizeTextFunc = nil
}
