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


// Package openai provides enrichment services backed by OpenAI-compatible
// vision models.
//
// The classifier and the text recognizer both send the image as a base64
// data URL inside a chat turn and ask for a JSON reply, through the
// langchaingo client. Any server speaking the OpenAI chat API with image
// input works (Ollama, LocalAI, vLLM).
//
// # Usage
//
//	config := ai.NewConfig(
//	    ai.WithHost("http://localhost:11434"), // /v1 added automatically
//	    ai.WithClassifierModel("qwen2.5vl:3b"),
//	)
//
//	provider, err := openai.NewProvider(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	label, err := provider.Classifier().Classify(ctx, imageBytes, "png")
//	text, err := provider.TextRecognizer().RecognizeText(ctx, imageBytes, "png")
package openai
