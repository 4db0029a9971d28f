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

package ai

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// OCR backends.
const (
	OCRBackendLLM       = "llm"
	OCRBackendTextract  = "textract"
	OCRBackendTesseract = "tesseract"
	OCRBackendNone      = "none"
)

// Config holds configuration for enrichment service providers.
type Config struct {
	// Host is the base URL of the OpenAI-compatible vision API.
	// Example: "http://localhost:11434/v1" for a local Ollama server
	Host string `yaml:"host"`

	// ClassifierModel is the vision model used for classification.
	// Empty disables classification.
	ClassifierModel string `yaml:"classifier_model"`

	// OCRBackend selects the text recognizer: llm, textract, tesseract or none.
	OCRBackend string `yaml:"ocr_backend"`

	// OCRModel is the vision model used when OCRBackend is "llm".
	OCRModel string `yaml:"ocr_model"`

	// Languages are the Tesseract language codes. Default: ["eng"]
	Languages []string `yaml:"languages"`

	// Region, AccessKey and SecretKey configure Textract. Empty values fall
	// back to the AWS default credential chain.
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the vision API host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.Host = host
	}
}

// WithClassifierModel sets the classification model. Empty disables classification.
func WithClassifierModel(model string) ConfigOption {
	return func(c *Config) {
		c.ClassifierModel = model
	}
}

// WithOCRBackend selects the OCR backend.
func WithOCRBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.OCRBackend = backend
	}
}

// WithOCRModel sets the model used by the llm OCR backend.
func WithOCRModel(model string) ConfigOption {
	return func(c *Config) {
		c.OCRModel = model
	}
}

// WithLanguages sets the Tesseract languages.
func WithLanguages(langs ...string) ConfigOption {
	return func(c *Config) {
		c.Languages = langs
	}
}

// WithTextract sets the Textract region and static credentials.
func WithTextract(region, accessKey, secretKey string) ConfigOption {
	return func(c *Config) {
		c.Region = region
		c.AccessKey = accessKey
		c.SecretKey = secretKey
	}
}

// DefaultConfig returns a Config for a local OpenAI-compatible server, with
// the same vision model serving classification and OCR.
func DefaultConfig() *Config {
	return &Config{
		Host:            "http://localhost:11434/v1",
		ClassifierModel: "qwen2.5vl:3b",
		OCRBackend:      OCRBackendLLM,
		OCRModel:        "qwen2.5vl:3b",
		Languages:       []string{"eng"},
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithHost("http://gpu-box:8080/v1"),
//	    WithOCRBackend(OCRBackendTextract),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It adds the /v1 suffix to the host if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, etc).
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
	c.OCRBackend = strings.ToLower(strings.TrimSpace(c.OCRBackend))
	if c.OCRBackend == "" {
		c.OCRBackend = OCRBackendNone
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"eng"}
	}
}

// UsesLLM reports whether any enabled service talks to the vision API.
func (c *Config) UsesLLM() bool {
	return c.ClassifierModel != "" || c.OCRBackend == OCRBackendLLM
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	c.Normalize()

	backends := []string{OCRBackendLLM, OCRBackendTextract, OCRBackendTesseract, OCRBackendNone}
	if !slices.Contains(backends, c.OCRBackend) {
		return fmt.Errorf("ai config: unknown OCR backend %q: must be one of %s",
			c.OCRBackend, strings.Join(backends, ", "))
	}
	if c.UsesLLM() && c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.OCRBackend == OCRBackendLLM && c.OCRModel == "" {
		return errors.New("ai config: OCRModel is required for the llm OCR backend")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.New("ai config: AccessKey and SecretKey must be set together")
	}
	return nil
}
