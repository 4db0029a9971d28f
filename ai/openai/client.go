package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/sluice/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// maxParseAttempts bounds regeneration when the model returns malformed JSON.
const maxParseAttempts = 3

// newClient creates a chat client for model on host.
// "none" is used as token for local servers that don't require authentication.
func newClient(host, model string) (llms.Model, error) {
	return openai.New(
		openai.WithBaseURL(host),
		openai.WithToken("none"),
		openai.WithModel(model),
	)
}

// imageMessages builds a system prompt plus one human turn carrying the
// instruction and the image as a data URL.
func imageMessages(systemPrompt, instruction string, image []byte, format string) []llms.MessageContent {
	dataURL := "data:image/" + format + ";base64," + base64.StdEncoding.EncodeToString(image)
	return []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(systemPrompt)},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(instruction),
				llms.ImageURLPart(dataURL),
			},
		},
	}
}

// generateJSON asks the model for a JSON object and decodes it into out,
// retrying generation when the reply does not parse.
func generateJSON(ctx context.Context, client llms.Model, logger *slog.Logger, content []llms.MessageContent, out any) error {
	var lastErr error
	for attempt := 0; attempt < maxParseAttempts; attempt++ {
		response, err := client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return err
		}

		if len(response.Choices) < 1 {
			return fmt.Errorf("%w: no choices returned from model", ai.ErrInvalidResponse)
		}

		responseText := cleanResponse(response.Choices[0].Content)
		if err := json.Unmarshal([]byte(responseText), out); err != nil {
			lastErr = err
			logger.Warn("error parsing model response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}
		return nil
	}

	logger.Error("failed to parse model response after retries", "err", lastErr)
	return fmt.Errorf("%w: %w", ai.ErrInvalidResponse, lastErr)
}

// cleanResponse strips markdown code fences and repairs common JSON defects.
func cleanResponse(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return repairJSON(strings.TrimSpace(s))
}
