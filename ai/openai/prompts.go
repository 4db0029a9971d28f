package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/sluice/ai"
)

const classificationResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "label": {
      "type": "string"
    },
    "confidence": {
      "type": "number",
      "minimum": 0,
      "maximum": 1
    }
  },
  "required": ["label", "confidence"],
  "additionalProperties": false
}`

const classificationPromptTemplate = `Classify the image you are given and return the result as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Label must match exactly one of the listed values: %s.
- Pick the single label that best describes the whole image.
- Use "other" when none of the labels fit.
- Confidence is a number from 0 (guess) to 1 (certain).
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example (a phone photo of a street):
{"label":"photograph","confidence":0.93}

Example (a scanned printed letter):
{"label":"document_scan","confidence":0.88}

Example (a bar chart exported from a spreadsheet):
{"label":"chart","confidence":0.9}`

const ocrSystemPrompt = `Transcribe all text visible in the image you are given and return it as JSON.

Output ONLY a JSON object of the form {"text": "...", "confidence": 0.0}. Do not include any preamble,
explanation, greeting, or acknowledgment.

Rules:
- Copy the text exactly as written. Do not summarize, translate or correct it.
- Keep reading order: top to bottom, left to right. Separate lines with \n.
- If the image contains no text, return {"text": "", "confidence": 0}.
- Confidence is a number from 0 (illegible) to 1 (perfectly legible).
- Escape quotes and backslashes so the JSON parses without errors.`

// buildClassifierPrompt creates the classifier system prompt with labels embedded.
func buildClassifierPrompt() string {
	return fmt.Sprintf(classificationPromptTemplate,
		classificationResponseSchema,
		strings.Join(ai.ImageLabels, ", "))
}
