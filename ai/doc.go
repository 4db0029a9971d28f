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

// Package ai provides abstractions for the image enrichment services used by
// the ingestion pipeline.
//
// Two capabilities are modelled:
//
//   - Classifier: assigns a best-guess label to an image
//   - TextRecognizer: reads text out of an image (OCR)
//
// A Provider bundles one of each. Either may be nil, which means the
// capability is switched off.
//
// # Implementation Packages
//
//   - ai/openai: vision models behind an OpenAI-compatible chat API
//   - ai/textract: AWS Textract text detection
//   - ai/tesseract: local Tesseract OCR (requires the tesseract build tag)
//   - ai/mock: test doubles with injectable behavior
//
// Public constructors return the interface types. Mock constructors return
// concrete types so tests can inject behavior and read call counts.
//
// # Usage Example
//
//	cfg := ai.NewConfig(ai.WithHost("http://localhost:11434/v1"))
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	label, err := provider.Classifier().Classify(ctx, pngBytes, "png")
package ai
