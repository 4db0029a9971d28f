// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package mock

import "github.com/poiesic/sluice/ai"

// MockProvider is a test double for ai.Provider.
// It aggregates mock classifier and recognizer instances.
type MockProvider struct {
	classifier *MockClassifier
	recognizer *MockTextRecognizer
	closed     bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.Provider interface for consistency with production constructors.
// Use GetMockClassifier()/GetMockRecognizer() to access concrete types for test assertions.
func NewMockProvider() ai.Provider {
	return &MockProvider{
		classifier: NewMockClassifier(),
		recognizer: NewMockTextRecognizer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// A nil service disables that capability.
func NewMockProviderWithServices(classifier *MockClassifier, recognizer *MockTextRecognizer) ai.Provider {
	return &MockProvider{
		classifier: classifier,
		recognizer: recognizer,
	}
}

// Classifier returns the mock classifier, or nil when none was configured.
func (p *MockProvider) Classifier() ai.Classifier {
	if p.classifier == nil {
		return nil
	}
	return p.classifier
}

// TextRecognizer returns the mock recognizer, or nil when none was configured.
func (p *MockProvider) TextRecognizer() ai.TextRecognizer {
	if p.recognizer == nil {
		return nil
	}
	return p.recognizer
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockClassifier returns the underlying mock classifier for test assertions.
func (p *MockProvider) GetMockClassifier() *MockClassifier {
	return p.classifier
}

// GetMockRecognizer returns the underlying mock recognizer for test assertions.
func (p *MockProvider) GetMockRecognizer() *MockTextRecognizer {
	return p.recognizer
}
