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

// Package textract implements ai.TextRecognizer with AWS Textract's
// synchronous DetectDocumentText API.
package textract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/poiesic/sluice/ai"
)

// MaxImageBytes is the largest payload DetectDocumentText accepts inline.
const MaxImageBytes = 10 << 20

// API is the subset of the Textract client used by Recognizer.
type API interface {
	DetectDocumentText(ctx context.Context, params *textract.DetectDocumentTextInput, optFns ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error)
}

// Recognizer reads text with Textract.
type Recognizer struct {
	client API
	logger *slog.Logger
}

var _ ai.TextRecognizer = (*Recognizer)(nil)

// New builds a Textract client from config. Region and static credentials
// are used when set; otherwise the AWS default chain applies.
func New(ctx context.Context, config *ai.Config) (ai.TextRecognizer, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if config.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(config.Region))
	}
	if config.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(config.AccessKey, config.SecretKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewWithClient(textract.NewFromConfig(awsCfg)), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client API) *Recognizer {
	return &Recognizer{
		client: client,
		logger: slog.Default().With("component", "textract-recognizer"),
	}
}

// RecognizeText returns the detected LINE blocks joined by newlines.
// Confidence is the mean line confidence scaled to [0,1].
func (r *Recognizer) RecognizeText(ctx context.Context, image []byte, format string) (*ai.RecognizedText, error) {
	if len(image) == 0 {
		return nil, ai.ErrEmptyImage
	}
	if len(image) > MaxImageBytes {
		return nil, fmt.Errorf("textract: image is %d bytes, limit is %d", len(image), MaxImageBytes)
	}

	out, err := r.client.DetectDocumentText(ctx, &textract.DetectDocumentTextInput{
		Document: &types.Document{Bytes: image},
	})
	if err != nil {
		return nil, fmt.Errorf("textract: %w", err)
	}

	var (
		lines []string
		total float64
	)
	for _, block := range out.Blocks {
		if block.BlockType != types.BlockTypeLine || block.Text == nil {
			continue
		}
		lines = append(lines, *block.Text)
		if block.Confidence != nil {
			total += float64(*block.Confidence)
		}
	}

	result := &ai.RecognizedText{Text: strings.Join(lines, "\n")}
	if len(lines) > 0 {
		result.Confidence = ai.ClampConfidence(total / float64(len(lines)) / 100)
	}
	r.logger.Debug("recognized text", "format", format, "lines", len(lines), "confidence", result.Confidence)
	return result, nil
}
