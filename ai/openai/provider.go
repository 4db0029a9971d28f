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

package openai

import (
	"log/slog"

	"github.com/poiesic/sluice/ai"
)

// Provider implements ai.Provider using OpenAI-compatible vision services.
type Provider struct {
	config     *ai.Config
	classifier *Classifier
	recognizer *TextRecognizer
	logger     *slog.Logger
}

// NewProvider creates a provider with the services enabled in config.
// The classifier is built when ClassifierModel is set; the recognizer when
// OCRBackend is "llm". The config is validated and normalized before use.
//
// Returns ai.Provider interface (not *Provider) to enforce abstraction.
func NewProvider(config *ai.Config) (ai.Provider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Provider{
		config: config,
		logger: slog.Default().With("component", "openai-provider"),
	}

	if config.ClassifierModel != "" {
		classifier, err := newClassifier(config)
		if err != nil {
			return nil, err
		}
		p.classifier = classifier
	}

	if config.OCRBackend == ai.OCRBackendLLM {
		recognizer, err := newTextRecognizer(config)
		if err != nil {
			return nil, err
		}
		p.recognizer = recognizer
	}

	return p, nil
}

// Classifier returns the image classifier, or nil when disabled.
func (p *Provider) Classifier() ai.Classifier {
	if p.classifier == nil {
		return nil
	}
	return p.classifier
}

// TextRecognizer returns the OCR service, or nil when disabled.
func (p *Provider) TextRecognizer() ai.TextRecognizer {
	if p.recognizer == nil {
		return nil
	}
	return p.recognizer
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
